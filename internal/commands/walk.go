package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/flow"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geoscore"
	"github.com/susu3304/snacknav/internal/geourl"
	"github.com/susu3304/snacknav/internal/walk"
)

const commandTimeout = 2500 * time.Millisecond

// Walk holds what the /walk command needs.
type Walk struct {
	Service  *walk.Service
	Searcher geocode.Searcher
	Maps     *http.Client
	Logger   *zap.Logger
}

func HandleWalk(s *discordgo.Session, i *discordgo.InteractionCreate, w *Walk) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondText(s, i, "No subcommand given")
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}

	// interactions must be answered within three seconds
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sub := data.Options[0]
	reply := w.Run(ctx, user.ID, user.Username, sub.Name, sub.Options)
	if err := respondText(s, i, reply); err != nil {
		w.logger().Warn("failed to respond to interaction",
			zap.String("subcommand", sub.Name), zap.Error(err))
	}
}

// Run executes one /walk subcommand for a Discord user and returns the reply.
func (w *Walk) Run(ctx context.Context, userID, username, sub string, opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	id := w.Service.OpenKeyed(walk.DiscordSessionKey(userID), username).ID

	switch sub {
	case "locate":
		return w.locate(ctx, id, stringOption(opts, "where"))
	case "search":
		return w.search(ctx, id, stringOption(opts, "query"))
	case "select":
		return w.selectPlace(id, stringOption(opts, "place"))
	case "challenge":
		res, err := w.Service.CompleteChallenge(ctx, id)
		if err != nil {
			return errMessage(err)
		}
		return fmt.Sprintf("%s %s done! You walked %s to %s and earned **%d pts**. Balance: %d pts",
			res.Task.Icon, res.Task.Name, geoscore.FormatDistance(res.DistanceKm), res.Place.Name, res.Points, res.Balance)
	case "rewards":
		return w.rewards(id, stringOption(opts, "tab"))
	case "claim":
		res, err := w.Service.ClaimReward(ctx, id, stringOption(opts, "reward"))
		if errors.Is(err, walk.ErrInsufficientPoints) {
			return fmt.Sprintf("%s costs %d pts but you have %d pts", res.Reward.Name, res.Reward.Cost, res.Balance)
		}
		if err != nil {
			return errMessage(err)
		}
		return fmt.Sprintf("%s Claimed %s for %d pts. Balance: %d pts", res.Reward.Icon, res.Reward.Name, res.Reward.Cost, res.Balance)
	case "status":
		v, err := w.Service.Get(id)
		if err != nil {
			return errMessage(err)
		}
		return v.Summary()
	}
	return "Unknown subcommand"
}

// locate tries a catalog city, then a maps link or coordinate pair, then the
// geocoder's best candidate.
func (w *Walk) locate(ctx context.Context, id, where string) string {
	where = strings.TrimSpace(where)
	if where == "" {
		return "Tell me where you are"
	}

	view, err := w.Service.SelectCity(id, where)
	if errors.Is(err, catalog.ErrUnknownCity) {
		var coord geoscore.Coord
		coord, _, err = geourl.ExpandAndExtractCoords(ctx, w.Maps, where)
		switch {
		case err == nil:
			source := walk.SourceMapsURL
			if _, ok := geourl.ParsePair(where); ok {
				source = walk.SourceGeolocation
			}
			view, err = w.Service.SetPosition(id, coord, source)
		case errors.Is(err, geourl.ErrNoCoordinates) && w.Searcher != nil:
			view, err = w.locateByGeocode(ctx, id, where)
		}
	}
	if err != nil {
		return errMessage(err)
	}

	if view.Step == flow.Welcome {
		if v, err := w.Service.AdvanceStep(id); err == nil {
			view = v
		}
	}
	return fmt.Sprintf("📍 Position set to %.4f, %.4f (%s). Try `/walk search` next.",
		view.Position.Lat, view.Position.Lng, view.PositionSource)
}

func (w *Walk) locateByGeocode(ctx context.Context, id, where string) (walk.View, error) {
	for _, c := range w.Searcher.Search(ctx, where) {
		if c.Type == geocode.FallbackType {
			continue
		}
		return w.Service.SetPosition(id, geoscore.Coord{Lat: c.Lat, Lng: c.Lon}, walk.SourceGeocode)
	}
	return walk.View{}, fmt.Errorf("%w: %q", geourl.ErrNoCoordinates, where)
}

func (w *Walk) search(ctx context.Context, id, query string) string {
	places, err := w.Service.SetSearchQuery(id, query)
	if err != nil {
		return errMessage(err)
	}

	var b strings.Builder
	if len(places) == 0 {
		fmt.Fprintf(&b, "No places match %q\n", query)
	}
	for _, p := range places {
		fmt.Fprintf(&b, "%s **%s** (`%s`, %s)\n", p.Icon, p.Name, p.ID, p.Category)
	}

	if w.Searcher != nil {
		suggestions, accepted, err := w.Service.Suggest(ctx, id, w.Searcher, query)
		if err == nil && accepted && len(suggestions) > 0 {
			b.WriteString("Elsewhere:\n")
			for idx, c := range suggestions {
				if idx == 3 {
					break
				}
				fmt.Fprintf(&b, "• %s\n", c.DisplayName)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (w *Walk) selectPlace(id, key string) string {
	view, err := w.Service.SelectLocation(id, key)
	if err != nil {
		return errMessage(err)
	}
	if v, err := w.Service.NavigateTo(id, flow.Challenge); err == nil {
		view = v
	}

	place := view.SelectedPlace
	task, ok := w.Service.Catalog().TaskFor(place.ID)
	if !ok {
		return fmt.Sprintf("%s %s has no challenge", place.Icon, place.Name)
	}
	msg := fmt.Sprintf("%s **%s**: %s (%d steps, %d kcal)",
		place.Icon, task.Name, task.Description, task.Steps, task.Calories)
	nearby, err := w.Service.Nearby(id)
	if err != nil {
		return msg
	}
	for _, np := range nearby {
		if np.ID == place.ID && np.DistanceKm != nil {
			msg += fmt.Sprintf("\n%s away, worth %d pts. Run `/walk challenge` when you arrive.",
				geoscore.FormatDistance(*np.DistanceKm), *np.Points)
		}
	}
	return msg
}

func (w *Walk) rewards(id, tabName string) string {
	tab, err := catalog.ParseTab(tabName)
	if err != nil {
		return errMessage(err)
	}
	rewards, err := w.Service.SetRewardTab(id, tab)
	if err != nil {
		return errMessage(err)
	}
	view, err := w.Service.Get(id)
	if err != nil {
		return errMessage(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Balance: %d pts\n", view.Balance)
	for _, r := range rewards {
		mark := "🔒"
		if view.Balance >= r.Cost {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s **%s** (`%s`) %d pts\n", mark, r.Icon, r.Name, r.ID, r.Cost)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (w *Walk) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

func errMessage(err error) string {
	switch {
	case errors.Is(err, walk.ErrNoPosition), errors.Is(err, flow.ErrPositionRequired):
		return "Set your position first with `/walk locate`"
	case errors.Is(err, walk.ErrNoChallenge):
		return "Pick a place first with `/walk select`"
	case errors.Is(err, walk.ErrChallengeDone):
		return "You already finished that challenge"
	case errors.Is(err, catalog.ErrUnknownPlace):
		return "No such place. Try `/walk search`"
	case errors.Is(err, catalog.ErrUnknownReward):
		return "No such reward. Try `/walk rewards`"
	case errors.Is(err, catalog.ErrUnknownTab):
		return "Unknown reward tab"
	case errors.Is(err, geourl.ErrNoCoordinates), errors.Is(err, walk.ErrInvalidPosition):
		return "Could not find that location"
	}
	return "Something went wrong: " + err.Error()
}
