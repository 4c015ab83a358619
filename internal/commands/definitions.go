package commands

import "github.com/bwmarrin/discordgo"

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         "walk",
			Description:  "Walk to nearby snacks and earn points",
			DMPermission: boolPtr(true),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "locate",
					Description: "Set your position from a city, a Google Maps link or lat,lng",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "where",
							Description: "City name, maps link or coordinates",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "search",
					Description: "Search places by name or category",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "query",
							Description: "Part of a name or a category (restaurant, cafe, shop)",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "select",
					Description: "Pick the place you want to walk to",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "place",
							Description: "Place id or name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "challenge",
					Description: "Complete the walk to the selected place",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "rewards",
					Description: "List rewards",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "tab",
							Description: "Reward type",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "all", Value: "all"},
								{Name: "nearby", Value: "nearby"},
								{Name: "healthy", Value: "healthy"},
								{Name: "premium", Value: "premium"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "claim",
					Description: "Spend points on a reward",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "reward",
							Description: "Reward id or name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show your balance and walking stats",
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
