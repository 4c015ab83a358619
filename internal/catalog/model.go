package catalog

import (
	"fmt"

	"github.com/susu3304/snacknav/internal/geoscore"
)

// Category tags a place.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryShop       Category = "shop"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryCafe, CategoryShop:
		return true
	}
	return false
}

// RewardKind is the tab a reward is listed under.
type RewardKind string

const (
	KindNearby  RewardKind = "nearby"
	KindHealthy RewardKind = "healthy"
	KindPremium RewardKind = "premium"
)

func (k RewardKind) Valid() bool {
	switch k {
	case KindNearby, KindHealthy, KindPremium:
		return true
	}
	return false
}

// Tab selects rewards on the rewards screen. TabAll shows every kind.
type Tab string

const TabAll Tab = "all"

// ParseTab accepts "all" or a reward kind.
func ParseTab(s string) (Tab, error) {
	if s == "" || s == string(TabAll) {
		return TabAll, nil
	}
	if RewardKind(s).Valid() {
		return Tab(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

type Place struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Coords   geoscore.Coord `json:"coords" yaml:"coords"`
	Category Category       `json:"category" yaml:"category"`
	Icon     string         `json:"icon,omitempty" yaml:"icon,omitempty"`
}

func (p Place) SearchName() string     { return p.Name }
func (p Place) SearchCategory() string { return string(p.Category) }

// Task is the walking challenge attached to a place.
type Task struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Calories    int    `json:"calories" yaml:"calories"`
	Steps       int    `json:"steps" yaml:"steps"`
	PlaceID     string `json:"place_id" yaml:"place_id"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

type Reward struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Cost        int        `json:"points" yaml:"points"`
	Icon        string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Kind        RewardKind `json:"type" yaml:"type"`
	Brand       string     `json:"brand,omitempty" yaml:"brand,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

func (r Reward) SearchName() string     { return r.Name }
func (r Reward) SearchCategory() string { return string(r.Kind) }

// City is a manual alternative to device geolocation.
type City struct {
	Name   string         `json:"name" yaml:"name"`
	Coords geoscore.Coord `json:"coords" yaml:"coords"`
}

func (c City) SearchName() string     { return c.Name }
func (c City) SearchCategory() string { return "" }
