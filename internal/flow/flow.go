package flow

import (
	"errors"
	"fmt"
	"strconv"
)

// Step is one screen of the app.
type Step int

const (
	Welcome Step = iota
	Map
	Challenge
	Rewards
	Profile
)

var (
	ErrPositionRequired = errors.New("set a location or city first")
	ErrLastStep         = errors.New("already at the last step")
	ErrUnknownStep      = errors.New("unknown step")
)

var stepNames = [...]string{"welcome", "map", "challenge", "rewards", "profile"}

func (s Step) Valid() bool { return s >= Welcome && s <= Profile }

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep accepts a step name or its index.
func ParseStep(v string) (Step, error) {
	for i, name := range stepNames {
		if v == name {
			return Step(i), nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil && Step(n).Valid() {
		return Step(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, v)
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Step) UnmarshalText(b []byte) error {
	v, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Breadcrumbs is the trail shown above each screen.
func (s Step) Breadcrumbs() []string {
	if s == Welcome || !s.Valid() {
		return []string{"Home"}
	}
	return []string{"Home", NavLinks[s].Label}
}

// NavLink is an entry of the persistent nav bar.
type NavLink struct {
	Label string `json:"label"`
	Step  Step   `json:"step"`
}

var NavLinks = []NavLink{
	{Label: "Home", Step: Welcome},
	{Label: "Map", Step: Map},
	{Label: "Challenge", Step: Challenge},
	{Label: "Rewards", Step: Rewards},
	{Label: "Profile", Step: Profile},
}

// Flow tracks the current screen. The zero value starts at Welcome with no guard.
type Flow struct {
	step            Step
	requirePosition bool
}

func New(requirePosition bool) Flow {
	return Flow{step: Welcome, requirePosition: requirePosition}
}

func (f Flow) Current() Step { return f.step }

// Next moves one screen forward.
func (f *Flow) Next(hasPosition bool) error {
	if f.step == Profile {
		return ErrLastStep
	}
	return f.Goto(f.step+1, hasPosition)
}

// Back moves one screen back, stopping at Welcome.
func (f *Flow) Back() {
	if f.step > Welcome {
		f.step--
	}
}

// Goto jumps to any screen, as the nav bar does. Leaving Welcome for Map is
// refused while the guard is on and no position is known.
func (f *Flow) Goto(to Step, hasPosition bool) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, int(to))
	}
	if f.requirePosition && !hasPosition && f.step == Welcome && to == Map {
		return ErrPositionRequired
	}
	f.step = to
	return nil
}
