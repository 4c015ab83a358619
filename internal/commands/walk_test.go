package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/flow"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/walk"
)

type stubLookup struct {
	results []geocode.Candidate
	err     error
}

func (s stubLookup) Lookup(context.Context, string) ([]geocode.Candidate, error) {
	return s.results, s.err
}

func opt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func newWalk(remote geocode.Lookup) *Walk {
	cat := catalog.Default()
	return &Walk{
		Service:  walk.NewService(cat, walk.Options{RequirePosition: true}),
		Searcher: geocode.NewSoftSearcher(remote, geocode.NewFallback(cat.CityNames())),
	}
}

func run(w *Walk, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) string {
	return w.Run(context.Background(), "42", "walker", sub, opts)
}

func TestWalkCommandFlow(t *testing.T) {
	w := newWalk(stubLookup{err: errors.New("offline")})

	assert.Contains(t, run(w, "challenge"), "/walk locate")

	reply := run(w, "locate", opt("where", "51.505,-0.09"))
	assert.Contains(t, reply, "51.5050, -0.0900")

	v, err := w.Service.Get(walk.DiscordSessionKey("42"))
	require.NoError(t, err)
	assert.Equal(t, flow.Map, v.Step)
	assert.Equal(t, "walker", v.Name)

	reply = run(w, "search", opt("query", "donut"))
	assert.Contains(t, reply, "Golden Donut House")
	assert.NotContains(t, reply, "Artisan Pizza")

	reply = run(w, "select", opt("place", "golden donut house"))
	assert.Contains(t, reply, "Donut Dash")
	assert.Contains(t, reply, "122 pts")

	reply = run(w, "challenge")
	assert.Contains(t, reply, "**122 pts**")
	assert.Contains(t, run(w, "challenge"), "already finished")

	reply = run(w, "claim", opt("reward", "Artisan Donut"))
	assert.Equal(t, "Artisan Donut costs 500 pts but you have 122 pts", reply)

	reply = run(w, "rewards", opt("tab", "nearby"))
	assert.True(t, strings.HasPrefix(reply, "Balance: 122 pts"))
	assert.Contains(t, reply, "Gourmet Coffee")
	assert.NotContains(t, reply, "Power Salad Bowl")

	assert.Contains(t, run(w, "status"), "Balance: 122 pts")
	assert.Equal(t, "Unknown subcommand", run(w, "dance"))
}

func TestLocateByCity(t *testing.T) {
	w := newWalk(stubLookup{err: errors.New("offline")})

	reply := run(w, "locate", opt("where", "Tokyo"))
	assert.Contains(t, reply, "35.6762, 139.6503 (city)")
}

func TestLocateByGeocode(t *testing.T) {
	w := newWalk(stubLookup{results: []geocode.Candidate{
		{DisplayName: "Shibuya, Tokyo, Japan", Lat: 35.658, Lon: 139.7016, Importance: 0.7},
	}})

	reply := run(w, "locate", opt("where", "Shibuya"))
	assert.Contains(t, reply, "35.6580, 139.7016 (geocode)")
}

func TestLocateSkipsFallbackCandidates(t *testing.T) {
	w := newWalk(stubLookup{err: errors.New("offline")})

	// "Amster" only reaches the offline list, whose entries have no coordinates
	reply := run(w, "locate", opt("where", "Amster"))
	assert.Equal(t, "Could not find that location", reply)

	_, err := w.Service.Get(walk.DiscordSessionKey("42"))
	require.NoError(t, err)
}

func TestSessionSharedAcrossCalls(t *testing.T) {
	w := newWalk(stubLookup{err: errors.New("offline")})
	run(w, "locate", opt("where", "51.505,-0.09"))

	other := w.Run(context.Background(), "7", "someone", "status", nil)
	assert.Contains(t, other, "Position: not set")
	assert.Contains(t, run(w, "status"), "Position: 51.5050, -0.0900")
}

func TestGetCommands(t *testing.T) {
	cmds := GetCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "walk", cmds[0].Name)

	var subs []string
	for _, o := range cmds[0].Options {
		subs = append(subs, o.Name)
	}
	assert.Equal(t, []string{"locate", "search", "select", "challenge", "rewards", "claim", "status"}, subs)
}
