package geocode

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// MinQueryLength is the shortest query sent to the remote service.
	MinQueryLength = 3
	// DefaultLimit is the number of candidates requested.
	DefaultLimit = 5
	// FallbackImportance is reported for every local fallback candidate.
	FallbackImportance = 0.5
	// FallbackType marks candidates that carry no real coordinates.
	FallbackType = "fallback"
)

var ErrEmptyResult = errors.New("geocoder returned no results")

// Candidate is one ranked place suggestion.
type Candidate struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Searcher never fails: it always returns a (possibly empty) list.
type Searcher interface {
	Search(ctx context.Context, query string) []Candidate
}

// Lookup is a remote geocoder that may fail.
type Lookup interface {
	Lookup(ctx context.Context, query string) ([]Candidate, error)
}

// Fallback matches queries against a fixed list of place names.
type Fallback struct {
	names []string
}

func NewFallback(names []string) *Fallback {
	return &Fallback{names: append([]string(nil), names...)}
}

// Search returns names containing query (case-insensitive) with placeholder
// coordinates.
func (f *Fallback) Search(_ context.Context, query string) []Candidate {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Candidate{}
	if q == "" {
		return out
	}
	for _, name := range f.names {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, Candidate{
				DisplayName: name,
				Type:        FallbackType,
				Importance:  FallbackImportance,
			})
		}
	}
	return out
}

// SoftSearcher queries a remote Lookup and degrades to a Fallback.
type SoftSearcher struct {
	remote   Lookup
	fallback *Fallback
	minLen   int
	limit    int
	logger   *zap.Logger
}

type Option func(*SoftSearcher)

func WithMinQueryLength(n int) Option {
	return func(s *SoftSearcher) {
		if n >= 0 {
			s.minLen = n
		}
	}
}

func WithLimit(n int) Option {
	return func(s *SoftSearcher) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *SoftSearcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSoftSearcher wires a remote lookup (nil means offline) to a fallback.
func NewSoftSearcher(remote Lookup, fallback *Fallback, opts ...Option) *SoftSearcher {
	if fallback == nil {
		fallback = NewFallback(nil)
	}
	s := &SoftSearcher{
		remote:   remote,
		fallback: fallback,
		minLen:   MinQueryLength,
		limit:    DefaultLimit,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SoftSearcher) Search(ctx context.Context, query string) []Candidate {
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) < s.minLen {
		return []Candidate{}
	}

	if s.remote != nil {
		results, err := s.remote.Lookup(ctx, query)
		if err == nil && len(results) > 0 {
			return truncate(results, s.limit)
		}
		if ctx.Err() != nil {
			// superseded by a newer keystroke; nobody will read this
			return []Candidate{}
		}
		if err == nil {
			err = ErrEmptyResult
		}
		s.logger.Warn("geocoding failed, using local fallback",
			zap.String("query", query), zap.Error(err))
	}
	return truncate(s.fallback.Search(ctx, query), s.limit)
}

func truncate(c []Candidate, n int) []Candidate {
	if n > 0 && len(c) > n {
		return c[:n]
	}
	return c
}
