package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownPlace  = errors.New("unknown place")
	ErrUnknownReward = errors.New("unknown reward")
	ErrUnknownCity   = errors.New("unknown city")
	ErrUnknownTab    = errors.New("unknown reward tab")
	ErrInvalid       = errors.New("invalid catalog")
)

// Catalog holds the static data loaded once at startup. Callers must not
// modify the slices it hands out.
type Catalog struct {
	Places  []Place  `yaml:"places"`
	Tasks   []Task   `yaml:"tasks"`
	Rewards []Reward `yaml:"rewards"`
	Cities  []City   `yaml:"cities"`

	placeByID  map[string]int
	rewardByID map[string]int
	taskByPlc  map[string]int
}

// Load reads a YAML catalog from path. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// New validates and indexes the given records.
func New(places []Place, tasks []Task, rewards []Reward, cities []City) (*Catalog, error) {
	c := &Catalog{Places: places, Tasks: tasks, Rewards: rewards, Cities: cities}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	c.placeByID = make(map[string]int, len(c.Places))
	for i, p := range c.Places {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("%w: place #%d needs id and name", ErrInvalid, i)
		}
		if !p.Category.Valid() {
			return fmt.Errorf("%w: place %s has category %q", ErrInvalid, p.ID, p.Category)
		}
		if _, dup := c.placeByID[p.ID]; dup {
			return fmt.Errorf("%w: duplicate place id %s", ErrInvalid, p.ID)
		}
		c.placeByID[p.ID] = i
	}

	c.taskByPlc = make(map[string]int, len(c.Tasks))
	seenTask := make(map[string]struct{}, len(c.Tasks))
	for i, t := range c.Tasks {
		if t.ID == "" {
			return fmt.Errorf("%w: task #%d needs id", ErrInvalid, i)
		}
		if _, dup := seenTask[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %s", ErrInvalid, t.ID)
		}
		seenTask[t.ID] = struct{}{}
		if _, ok := c.placeByID[t.PlaceID]; !ok {
			return fmt.Errorf("%w: task %s references unknown place %q", ErrInvalid, t.ID, t.PlaceID)
		}
		if t.Calories < 0 || t.Steps < 0 {
			return fmt.Errorf("%w: task %s has negative reward", ErrInvalid, t.ID)
		}
		// first task per place wins
		if _, ok := c.taskByPlc[t.PlaceID]; !ok {
			c.taskByPlc[t.PlaceID] = i
		}
	}

	c.rewardByID = make(map[string]int, len(c.Rewards))
	for i, r := range c.Rewards {
		if r.ID == "" || r.Name == "" {
			return fmt.Errorf("%w: reward #%d needs id and name", ErrInvalid, i)
		}
		if r.Cost < 0 {
			return fmt.Errorf("%w: reward %s has negative cost", ErrInvalid, r.ID)
		}
		if !r.Kind.Valid() {
			return fmt.Errorf("%w: reward %s has type %q", ErrInvalid, r.ID, r.Kind)
		}
		if _, dup := c.rewardByID[r.ID]; dup {
			return fmt.Errorf("%w: duplicate reward id %s", ErrInvalid, r.ID)
		}
		c.rewardByID[r.ID] = i
	}

	for i, city := range c.Cities {
		if strings.TrimSpace(city.Name) == "" {
			return fmt.Errorf("%w: city #%d needs a name", ErrInvalid, i)
		}
	}
	return nil
}

func (c *Catalog) Place(id string) (Place, error) {
	i, ok := c.placeByID[id]
	if !ok {
		return Place{}, fmt.Errorf("%w: %s", ErrUnknownPlace, id)
	}
	return c.Places[i], nil
}

func (c *Catalog) Reward(id string) (Reward, error) {
	i, ok := c.rewardByID[id]
	if !ok {
		return Reward{}, fmt.Errorf("%w: %s", ErrUnknownReward, id)
	}
	return c.Rewards[i], nil
}

// TaskFor returns the challenge for a place.
func (c *Catalog) TaskFor(placeID string) (Task, bool) {
	i, ok := c.taskByPlc[placeID]
	if !ok {
		return Task{}, false
	}
	return c.Tasks[i], true
}

// City looks a city up by case-insensitive name, with or without the
// country suffix ("Paris" finds "Paris, France").
func (c *Catalog) City(name string) (City, error) {
	name = strings.TrimSpace(name)
	for _, city := range c.Cities {
		if strings.EqualFold(city.Name, name) {
			return city, nil
		}
		if short, _, ok := strings.Cut(city.Name, ","); ok && strings.EqualFold(strings.TrimSpace(short), name) {
			return city, nil
		}
	}
	return City{}, fmt.Errorf("%w: %s", ErrUnknownCity, name)
}

// FindPlace resolves an id or a case-insensitive exact name.
func (c *Catalog) FindPlace(key string) (Place, error) {
	if p, err := c.Place(key); err == nil {
		return p, nil
	}
	for _, p := range c.Places {
		if strings.EqualFold(p.Name, strings.TrimSpace(key)) {
			return p, nil
		}
	}
	return Place{}, fmt.Errorf("%w: %s", ErrUnknownPlace, key)
}

// FindReward resolves an id or a case-insensitive exact name.
func (c *Catalog) FindReward(key string) (Reward, error) {
	if r, err := c.Reward(key); err == nil {
		return r, nil
	}
	for _, r := range c.Rewards {
		if strings.EqualFold(r.Name, strings.TrimSpace(key)) {
			return r, nil
		}
	}
	return Reward{}, fmt.Errorf("%w: %s", ErrUnknownReward, key)
}

// CityNames lists the city names in catalog order.
func (c *Catalog) CityNames() []string {
	names := make([]string, 0, len(c.Cities))
	for _, city := range c.Cities {
		names = append(names, city.Name)
	}
	return names
}
