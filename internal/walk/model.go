package walk

import (
	"context"
	"time"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/flow"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geoscore"
)

// PositionSource says how the user position was acquired.
type PositionSource string

const (
	SourceGeolocation PositionSource = "geolocation"
	SourceCity        PositionSource = "city"
	SourceMapsURL     PositionSource = "maps_url"
	SourceGeocode     PositionSource = "geocode"
)

type Stats struct {
	Calories   int     `json:"calories"`
	Steps      int     `json:"steps"`
	DistanceKm float64 `json:"distance_km"`
	Challenges int     `json:"challenges"`
}

type ClaimedReward struct {
	RewardID string    `json:"reward_id"`
	Name     string    `json:"name"`
	Cost     int       `json:"cost"`
	At       time.Time `json:"at"`
}

// session is the mutable state behind one user. Only Service touches it.
type session struct {
	id        string
	name      string
	flow      flow.Flow
	position  *geoscore.Coord
	source    PositionSource
	balance   int
	selected  string
	query     string
	tab       catalog.Tab
	stats     Stats
	completed map[string]time.Time
	claims    []ClaimedReward
	tracker   *geocode.Tracker
	suggest   []geocode.Candidate
	createdAt time.Time
	updatedAt time.Time
}

// View is a read-only snapshot of a session.
type View struct {
	ID             string              `json:"id"`
	Name           string              `json:"name,omitempty"`
	Step           flow.Step           `json:"step"`
	Breadcrumbs    []string            `json:"breadcrumbs"`
	Position       *geoscore.Coord     `json:"position,omitempty"`
	PositionSource PositionSource      `json:"position_source,omitempty"`
	Balance        int                 `json:"balance"`
	SelectedPlace  *catalog.Place      `json:"selected_place,omitempty"`
	SearchQuery    string              `json:"search_query"`
	RewardTab      catalog.Tab         `json:"reward_tab"`
	Stats          Stats               `json:"stats"`
	Completed      []string            `json:"completed_places"`
	Claims         []ClaimedReward     `json:"claims"`
	Suggestions    []geocode.Candidate `json:"suggestions"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NearbyPlace is a catalog place annotated for the map screen.
type NearbyPlace struct {
	catalog.Place
	DistanceKm *float64      `json:"distance_km,omitempty"`
	Points     *int          `json:"points,omitempty"`
	Task       *catalog.Task `json:"task,omitempty"`
	Completed  bool          `json:"completed"`
}

type ChallengeResult struct {
	Task       catalog.Task  `json:"task"`
	Place      catalog.Place `json:"place"`
	DistanceKm float64       `json:"distance_km"`
	Points     int           `json:"points"`
	Balance    int           `json:"balance"`
}

type ClaimResult struct {
	Reward  catalog.Reward `json:"reward"`
	Balance int            `json:"balance"`
}

type EventKind string

const (
	EventChallengeCompleted EventKind = "challenge_completed"
	EventRewardClaimed      EventKind = "reward_claimed"
)

// Event is one ledger line. Points is signed: positive for earnings,
// negative for claims.
type Event struct {
	ID         int64     `json:"id,omitempty"`
	SessionID  string    `json:"session_id"`
	Kind       EventKind `json:"kind"`
	RefID      string    `json:"ref_id"`
	Points     int       `json:"points"`
	Balance    int       `json:"balance"`
	DistanceKm float64   `json:"distance_km,omitempty"`
	At         time.Time `json:"at"`
}

// Ledger keeps an audit trail of balance changes. It is write-behind:
// sessions never read balances back from it.
type Ledger interface {
	Record(ctx context.Context, e Event) error
	History(ctx context.Context, sessionID string, limit int) ([]Event, error)
}

// DiscordSessionKey is the session id shared by the chat bot and the web
// login for one Discord user.
func DiscordSessionKey(userID string) string {
	return "discord:" + userID
}
