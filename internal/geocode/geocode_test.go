package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var localNames = []string{
	"London, United Kingdom",
	"Paris, France",
	"Parma, Italy",
	"Tokyo, Japan",
}

type fakeLookup struct {
	calls   atomic.Int32
	results []Candidate
	err     error
}

func (f *fakeLookup) Lookup(ctx context.Context, query string) ([]Candidate, error) {
	f.calls.Add(1)
	return f.results, f.err
}

func TestFallbackSearch(t *testing.T) {
	fb := NewFallback(localNames)

	got := fb.Search(context.Background(), "PAR")
	require.Len(t, got, 2)
	assert.Equal(t, "Paris, France", got[0].DisplayName)
	assert.Equal(t, "Parma, Italy", got[1].DisplayName)
	for _, c := range got {
		assert.Zero(t, c.Lat)
		assert.Zero(t, c.Lon)
		assert.Equal(t, FallbackImportance, c.Importance)
	}

	assert.Empty(t, fb.Search(context.Background(), "atlantis"))
	assert.Empty(t, fb.Search(context.Background(), ""))
}

func TestSoftSearcherShortQuerySkipsRemote(t *testing.T) {
	remote := &fakeLookup{results: []Candidate{{DisplayName: "x"}}}
	s := NewSoftSearcher(remote, NewFallback(localNames))

	assert.Empty(t, s.Search(context.Background(), "Pa"))
	assert.Empty(t, s.Search(context.Background(), "   "))
	assert.Equal(t, int32(0), remote.calls.Load())
}

func TestSoftSearcherFallsBackOnError(t *testing.T) {
	remote := &fakeLookup{err: errors.New("connection refused")}
	s := NewSoftSearcher(remote, NewFallback(localNames))

	got := s.Search(context.Background(), "Par")
	require.NotEmpty(t, got)
	assert.Equal(t, "Paris, France", got[0].DisplayName)
	assert.Equal(t, int32(1), remote.calls.Load())
}

func TestSoftSearcherFallsBackOnEmpty(t *testing.T) {
	s := NewSoftSearcher(&fakeLookup{}, NewFallback(localNames))
	got := s.Search(context.Background(), "tokyo")
	require.Len(t, got, 1)
	assert.Equal(t, "Tokyo, Japan", got[0].DisplayName)
}

func TestSoftSearcherOffline(t *testing.T) {
	s := NewSoftSearcher(nil, NewFallback(localNames), WithMinQueryLength(0), WithLimit(1))
	got := s.Search(context.Background(), "a")
	assert.Len(t, got, 1)
}

func TestSoftSearcherPrefersRemote(t *testing.T) {
	remote := &fakeLookup{results: []Candidate{
		{DisplayName: "Paris, Île-de-France, France", Lat: 48.85, Lon: 2.35, Type: "city", Importance: 0.9},
	}}
	s := NewSoftSearcher(remote, NewFallback(localNames))
	got := s.Search(context.Background(), "Paris")
	require.Len(t, got, 1)
	assert.Equal(t, 48.85, got[0].Lat)
}

func TestNominatimClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name":"Paris, France","lat":"48.8566","lon":"2.3522","type":"city","importance":0.96},
			{"display_name":"broken","lat":"n/a","lon":"2","type":"city","importance":0.1}
		]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, 5, time.Second)
	got, err := c.Lookup(context.Background(), "Paris France")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{DisplayName: "Paris, France", Lat: 48.8566, Lon: 2.3522, Type: "city", Importance: 0.96}, got[0])

	q := gotQuery.Load().(string)
	assert.Contains(t, q, "q=Paris+France")
	assert.Contains(t, q, "limit=5")
	assert.Contains(t, q, "addressdetails=1")
	assert.Contains(t, q, "format=json")

	c.client.CloseIdleConnections()
}

func TestNominatimClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad json" {
			w.Write([]byte(`{not json`))
			return
		}
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, 5, time.Second)

	_, err := c.Lookup(context.Background(), "status")
	assert.ErrorContains(t, err, "status 503")

	_, err = c.Lookup(context.Background(), "bad json")
	assert.ErrorContains(t, err, "decode")

	s := NewSoftSearcher(c, NewFallback(localNames))
	got := s.Search(context.Background(), "Par")
	require.NotEmpty(t, got)
	assert.Equal(t, "Paris, France", got[0].DisplayName)
}

// blockingLookup holds "slow" queries until their context is cancelled.
type blockingLookup struct {
	started chan struct{}
}

func (b *blockingLookup) Lookup(ctx context.Context, query string) ([]Candidate, error) {
	if query == "slow" {
		close(b.started)
		<-ctx.Done()
		return []Candidate{{DisplayName: "stale"}}, ctx.Err()
	}
	return []Candidate{{DisplayName: "fresh"}}, nil
}

func TestTrackerRejectsStaleResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := &blockingLookup{started: make(chan struct{})}
	s := NewSoftSearcher(remote, NewFallback(localNames), WithMinQueryLength(1))
	var tr Tracker

	type outcome struct {
		results []Candidate
		ok      bool
	}
	slow := make(chan outcome, 1)
	go func() {
		res, _, ok := tr.Search(context.Background(), s, "slow")
		slow <- outcome{res, ok}
	}()
	<-remote.started

	fresh, gen, ok := tr.Search(context.Background(), s, "fresh query")
	require.True(t, ok)
	assert.Equal(t, uint64(2), gen)
	assert.Equal(t, "fresh", fresh[0].DisplayName)

	old := <-slow
	assert.False(t, old.ok, "superseded lookup must be refused")
	assert.Empty(t, old.results)
	assert.Equal(t, uint64(2), tr.Current())
}

func TestTrackerAcceptOnlyNewest(t *testing.T) {
	var tr Tracker
	ctx1, g1 := tr.Begin(context.Background())
	_, g2 := tr.Begin(context.Background())

	assert.Error(t, ctx1.Err(), "older context is cancelled")
	assert.False(t, tr.Accept(g1))
	assert.True(t, tr.Accept(g2))
	tr.Stop()
}
