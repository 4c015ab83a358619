package walk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/flow"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geoscore"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoPosition         = errors.New("no position set")
	ErrNoChallenge        = errors.New("no challenge selected")
	ErrChallengeDone      = errors.New("challenge already completed")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrNoLedger           = errors.New("activity ledger disabled")
)

type Options struct {
	MaxKm           float64
	Sort            catalog.SortPolicy
	RequirePosition bool
	Ledger          Ledger
	Logger          *zap.Logger
	Now             func() time.Time
}

// Service owns every session. Each named action takes the service lock once,
// so an action is atomic with respect to the session it touches.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session

	catalog         *catalog.Catalog
	ledger          Ledger
	logger          *zap.Logger
	maxKm           float64
	sortPolicy      catalog.SortPolicy
	requirePosition bool
	now             func() time.Time
}

func NewService(cat *catalog.Catalog, opts Options) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	s := &Service{
		sessions:        make(map[string]*session),
		catalog:         cat,
		ledger:          opts.Ledger,
		logger:          opts.Logger,
		maxKm:           opts.MaxKm,
		sortPolicy:      opts.Sort,
		requirePosition: opts.RequirePosition,
		now:             opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxKm <= 0 {
		s.maxKm = geoscore.DefaultMaxKm
	}
	if s.sortPolicy == "" {
		s.sortPolicy = catalog.SortCatalog
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) newSession(id, name string) *session {
	now := s.now()
	return &session{
		id:        id,
		name:      name,
		flow:      flow.New(s.requirePosition),
		tab:       catalog.TabAll,
		completed: make(map[string]time.Time),
		tracker:   &geocode.Tracker{},
		createdAt: now,
		updatedAt: now,
	}
}

// Open creates a fresh anonymous session.
func (s *Service) Open(name string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.newSession(uuid.NewString(), name)
	s.sessions[sess.id] = sess
	return s.view(sess)
}

// OpenKeyed returns the session stored under key, creating it if needed.
// Chat users and web logins share sessions this way.
func (s *Service) OpenKeyed(key, name string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = s.newSession(key, name)
		s.sessions[key] = sess
	} else if name != "" {
		sess.name = name
	}
	return s.view(sess)
}

func (s *Service) Get(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

// Close drops a session and cancels its in-flight lookup.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.tracker.Stop()
	delete(s.sessions, id)
	return nil
}

func (s *Service) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// SetPosition records a position acquired from the device, a link or a
// geocoding candidate.
func (s *Service) SetPosition(id string, pos geoscore.Coord, source PositionSource) (View, error) {
	if pos.Lat < -90 || pos.Lat > 90 || pos.Lng < -180 || pos.Lng > 180 {
		return View{}, fmt.Errorf("%w: %.6f,%.6f", ErrInvalidPosition, pos.Lat, pos.Lng)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	sess.position = &pos
	sess.source = source
	sess.updatedAt = s.now()
	return s.view(sess), nil
}

// SelectCity sets the position to a catalog city.
func (s *Service) SelectCity(id, name string) (View, error) {
	city, err := s.catalog.City(name)
	if err != nil {
		return View{}, err
	}
	return s.SetPosition(id, city.Coords, SourceCity)
}

// SelectLocation picks a place on the map screen.
func (s *Service) SelectLocation(id, placeKey string) (View, error) {
	place, err := s.catalog.FindPlace(placeKey)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	sess.selected = place.ID
	sess.query = place.Name
	sess.updatedAt = s.now()
	return s.view(sess), nil
}

// SetSearchQuery stores the map search text and returns matching places.
func (s *Service) SetSearchQuery(id, query string) ([]catalog.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.query = query
	sess.updatedAt = s.now()
	return catalog.Search(s.catalog.Places, query, s.sortPolicy), nil
}

// SearchPlaces filters the place catalog without touching any session.
func (s *Service) SearchPlaces(query string) []catalog.Place {
	return catalog.Search(s.catalog.Places, query, s.sortPolicy)
}

// Suggest runs a tracked geocoding lookup for the session. Suggestions from a
// lookup overtaken by a newer one are discarded and accepted is false.
func (s *Service) Suggest(ctx context.Context, id string, searcher geocode.Searcher, query string) (results []geocode.Candidate, accepted bool, err error) {
	s.mu.Lock()
	sess, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, false, err
	}
	tracker := sess.tracker
	s.mu.Unlock()

	results, gen, ok := tracker.Search(ctx, searcher, query)
	if !ok {
		s.logger.Debug("discarding stale suggestions",
			zap.String("session", id), zap.Uint64("generation", gen), zap.String("query", query))
		return nil, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, err = s.lookup(id); err != nil {
		return nil, false, err
	}
	// a newer lookup may have begun between Accept and here
	if tracker.Current() != gen {
		return nil, false, nil
	}
	sess.suggest = results
	sess.updatedAt = s.now()
	return results, true, nil
}

func (s *Service) SetRewardTab(id string, tab catalog.Tab) ([]catalog.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.tab = tab
	sess.updatedAt = s.now()
	return catalog.RewardsByTab(s.catalog.Rewards, tab), nil
}

func (s *Service) AdvanceStep(id string) (View, error) {
	return s.move(id, func(sess *session) error {
		return sess.flow.Next(sess.position != nil)
	})
}

func (s *Service) GoBack(id string) (View, error) {
	return s.move(id, func(sess *session) error {
		sess.flow.Back()
		return nil
	})
}

func (s *Service) NavigateTo(id string, step flow.Step) (View, error) {
	return s.move(id, func(sess *session) error {
		return sess.flow.Goto(step, sess.position != nil)
	})
}

func (s *Service) move(id string, fn func(*session) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	if err := fn(sess); err != nil {
		return s.view(sess), err
	}
	sess.updatedAt = s.now()
	return s.view(sess), nil
}

// Nearby lists every place with its distance and reward from the session
// position, nearest first. Without a position the catalog order is kept.
func (s *Service) Nearby(id string) ([]NearbyPlace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]NearbyPlace, 0, len(s.catalog.Places))
	for _, p := range s.catalog.Places {
		np := NearbyPlace{Place: p}
		if t, ok := s.catalog.TaskFor(p.ID); ok {
			np.Task = &t
		}
		_, np.Completed = sess.completed[p.ID]
		if sess.position != nil {
			d := geoscore.DistanceKm(*sess.position, p.Coords)
			pts := geoscore.Points(d, s.maxKm)
			np.DistanceKm = &d
			np.Points = &pts
		}
		out = append(out, np)
	}
	if sess.position != nil {
		sort.SliceStable(out, func(i, j int) bool { return *out[i].DistanceKm < *out[j].DistanceKm })
	}
	return out, nil
}

// CompleteChallenge finishes the walk to the selected place and credits
// Points(distance) to the balance.
func (s *Service) CompleteChallenge(ctx context.Context, id string) (ChallengeResult, error) {
	s.mu.Lock()
	sess, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return ChallengeResult{}, err
	}
	if sess.position == nil {
		s.mu.Unlock()
		return ChallengeResult{}, ErrNoPosition
	}
	if sess.selected == "" {
		s.mu.Unlock()
		return ChallengeResult{}, ErrNoChallenge
	}
	place, err := s.catalog.Place(sess.selected)
	if err != nil {
		s.mu.Unlock()
		return ChallengeResult{}, err
	}
	task, ok := s.catalog.TaskFor(place.ID)
	if !ok {
		s.mu.Unlock()
		return ChallengeResult{}, fmt.Errorf("%w: %s has no challenge", ErrNoChallenge, place.Name)
	}
	if _, done := sess.completed[place.ID]; done {
		s.mu.Unlock()
		return ChallengeResult{}, fmt.Errorf("%w: %s", ErrChallengeDone, task.Name)
	}

	now := s.now()
	dist := geoscore.DistanceKm(*sess.position, place.Coords)
	pts := geoscore.Points(dist, s.maxKm)
	sess.balance += pts
	sess.completed[place.ID] = now
	sess.stats.Calories += task.Calories
	sess.stats.Steps += task.Steps
	sess.stats.DistanceKm += dist
	sess.stats.Challenges++
	sess.updatedAt = now
	balance := sess.balance
	s.mu.Unlock()

	s.record(ctx, Event{
		SessionID:  id,
		Kind:       EventChallengeCompleted,
		RefID:      task.ID,
		Points:     pts,
		Balance:    balance,
		DistanceKm: dist,
		At:         now,
	})

	return ChallengeResult{Task: task, Place: place, DistanceKm: dist, Points: pts, Balance: balance}, nil
}

// ClaimReward spends points on a reward. The claim either debits exactly the
// reward cost or leaves the balance untouched.
func (s *Service) ClaimReward(ctx context.Context, id, rewardKey string) (ClaimResult, error) {
	reward, err := s.catalog.FindReward(rewardKey)
	if err != nil {
		return ClaimResult{}, err
	}

	s.mu.Lock()
	sess, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return ClaimResult{}, err
	}
	if sess.balance < reward.Cost {
		balance := sess.balance
		s.mu.Unlock()
		return ClaimResult{Reward: reward, Balance: balance},
			fmt.Errorf("%w: %s costs %d, balance is %d", ErrInsufficientPoints, reward.Name, reward.Cost, balance)
	}
	now := s.now()
	sess.balance -= reward.Cost
	sess.claims = append(sess.claims, ClaimedReward{RewardID: reward.ID, Name: reward.Name, Cost: reward.Cost, At: now})
	sess.updatedAt = now
	balance := sess.balance
	s.mu.Unlock()

	s.record(ctx, Event{
		SessionID: id,
		Kind:      EventRewardClaimed,
		RefID:     reward.ID,
		Points:    -reward.Cost,
		Balance:   balance,
		At:        now,
	})

	return ClaimResult{Reward: reward, Balance: balance}, nil
}

// History returns ledger events for a session, newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]Event, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if s.ledger == nil {
		return nil, ErrNoLedger
	}
	return s.ledger.History(ctx, id, limit)
}

func (s *Service) record(ctx context.Context, e Event) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(ctx, e); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("session", e.SessionID),
			zap.String("kind", string(e.Kind)),
			zap.Error(err))
	}
}

func (s *Service) view(sess *session) View {
	v := View{
		ID:             sess.id,
		Name:           sess.name,
		Step:           sess.flow.Current(),
		Breadcrumbs:    sess.flow.Current().Breadcrumbs(),
		PositionSource: sess.source,
		Balance:        sess.balance,
		SearchQuery:    sess.query,
		RewardTab:      sess.tab,
		Stats:          sess.stats,
		Completed:      make([]string, 0, len(sess.completed)),
		Claims:         append([]ClaimedReward{}, sess.claims...),
		Suggestions:    append([]geocode.Candidate{}, sess.suggest...),
		CreatedAt:      sess.createdAt,
		UpdatedAt:      sess.updatedAt,
	}
	if sess.position != nil {
		pos := *sess.position
		v.Position = &pos
	}
	if sess.selected != "" {
		if p, err := s.catalog.Place(sess.selected); err == nil {
			v.SelectedPlace = &p
		}
	}
	for placeID := range sess.completed {
		v.Completed = append(v.Completed, placeID)
	}
	sort.Strings(v.Completed)
	return v
}

// Summary renders a short plain-text status, used by the chat surface.
func (v View) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Screen: %s\n", strings.Join(v.Breadcrumbs, " / "))
	if v.Position != nil {
		fmt.Fprintf(&b, "Position: %.4f, %.4f (%s)\n", v.Position.Lat, v.Position.Lng, v.PositionSource)
	} else {
		b.WriteString("Position: not set\n")
	}
	if v.SelectedPlace != nil {
		fmt.Fprintf(&b, "Selected: %s %s\n", v.SelectedPlace.Icon, v.SelectedPlace.Name)
	}
	fmt.Fprintf(&b, "Balance: %d pts\n", v.Balance)
	fmt.Fprintf(&b, "Walked: %s, %d steps, %d kcal over %d challenges",
		geoscore.FormatDistance(v.Stats.DistanceKm), v.Stats.Steps, v.Stats.Calories, v.Stats.Challenges)
	return b.String()
}
