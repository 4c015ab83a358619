package geourl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/susu3304/snacknav/internal/geoscore"
)

func TestExtractFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   geoscore.Coord
		wantOk bool
	}{
		{
			name:   "Pattern A: @lat,lng format",
			url:    "https://www.google.com/maps/@51.505,-0.09,15z",
			want:   geoscore.Coord{Lat: 51.505, Lng: -0.09},
			wantOk: true,
		},
		{
			name:   "Pattern B: !3dlat!4dlng format",
			url:    "https://www.google.com/maps/place/Borough+Market!3d51.5055!4d-0.091",
			want:   geoscore.Coord{Lat: 51.5055, Lng: -0.091},
			wantOk: true,
		},
		{
			name:   "Pattern C: /maps/search/lat,lng with plus",
			url:    "https://www.google.com/maps/search/51.51,+-0.1?entry=tts",
			want:   geoscore.Coord{Lat: 51.51, Lng: -0.1},
			wantOk: true,
		},
		{
			name:   "Pattern C: /maps/search/lat,lng without plus",
			url:    "https://www.google.com/maps/search/48.8566,2.3522",
			want:   geoscore.Coord{Lat: 48.8566, Lng: 2.3522},
			wantOk: true,
		},
		{
			name:   "Pattern D: query param ?q=lat,lng",
			url:    "https://www.google.com/maps?q=35.6762,139.6503",
			want:   geoscore.Coord{Lat: 35.6762, Lng: 139.6503},
			wantOk: true,
		},
		{
			name:   "Pattern D: query param ?query=lat,lng",
			url:    "https://www.google.com/maps?query=-33.8688,%20151.2093",
			want:   geoscore.Coord{Lat: -33.8688, Lng: 151.2093},
			wantOk: true,
		},
		{
			name:   "out of range latitude",
			url:    "https://www.google.com/maps/@95.0,10.0,15z",
			wantOk: false,
		},
		{
			name:   "No coordinates",
			url:    "https://www.google.com/maps/place/London",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotOk := extractFromURL(tt.url)
			if gotOk != tt.wantOk {
				t.Errorf("extractFromURL() gotOk = %v, want %v", gotOk, tt.wantOk)
				return
			}
			if !tt.wantOk {
				return
			}
			if got != tt.want {
				t.Errorf("extractFromURL() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsePair(t *testing.T) {
	if c, ok := ParsePair(" 51.505 , -0.09 "); !ok || c.Lat != 51.505 || c.Lng != -0.09 {
		t.Errorf("ParsePair() = %+v, %v", c, ok)
	}
	if _, ok := ParsePair("London"); ok {
		t.Error("ParsePair(London) should fail")
	}
}

// routeTransport sends every request to target, keeping the original URL on
// the client side so redirects resolve against the real host names.
type routeTransport struct {
	target *url.URL
}

func (rt routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func newRoutedClient(t *testing.T, h http.Handler) *http.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(2 * time.Second)
	client.Transport = routeTransport{target: target}
	return client
}

func TestExpandAndExtractCoords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://www.google.com/maps/@51.507,-0.08,17z", http.StatusFound)
	})
	mux.HandleFunc("/nowhere", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://www.google.com/maps/place/London", http.StatusFound)
	})
	mux.HandleFunc("/maps/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newRoutedClient(t, mux)
	ctx := context.Background()

	c, final, err := ExpandAndExtractCoords(ctx, client, "https://maps.app.goo.gl/short")
	if err != nil {
		t.Fatalf("ExpandAndExtractCoords() error = %v", err)
	}
	if c.Lat != 51.507 || c.Lng != -0.08 {
		t.Errorf("ExpandAndExtractCoords() = %+v", c)
	}
	if final != "https://www.google.com/maps/@51.507,-0.08,17z" {
		t.Errorf("final URL = %s", final)
	}

	_, _, err = ExpandAndExtractCoords(ctx, client, "https://goo.gl/nowhere")
	if !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("expected ErrNoCoordinates, got %v", err)
	}

	c, _, err = ExpandAndExtractCoords(ctx, client, "40.7128,-74.006")
	if err != nil || c.Lat != 40.7128 {
		t.Errorf("bare pair: %+v, %v", c, err)
	}

	_, _, err = ExpandAndExtractCoords(ctx, client, "somewhere nice")
	if !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("expected ErrNoCoordinates for free text, got %v", err)
	}
}

func TestExpandRefusesOtherHosts(t *testing.T) {
	var internalHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/bounce", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.5/admin/secret-path?token=abc", http.StatusFound)
	})
	mux.HandleFunc("/admin/", func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	client := newRoutedClient(t, mux)
	ctx := context.Background()

	for _, link := range []string{
		"http://10.0.0.5/admin/secret-path?token=abc",
		"http://localhost:8080/admin/",
		"https://google.com.evil.example/maps",
		"https://maps.app.goo.gl/bounce",
	} {
		_, final, err := ExpandAndExtractCoords(ctx, client, link)
		if !errors.Is(err, ErrHostNotAllowed) || !errors.Is(err, ErrNoCoordinates) {
			t.Errorf("%s: expected ErrHostNotAllowed, got %v", link, err)
		}
		if final != "" {
			t.Errorf("%s: final URL should stay empty, got %s", link, final)
		}
		if err != nil && strings.Contains(err.Error(), "secret-path") {
			t.Errorf("%s: error leaks the redirect target: %v", link, err)
		}
	}
	if n := internalHits.Load(); n != 0 {
		t.Errorf("internal host was fetched %d times", n)
	}

	// Long links with coordinates resolve without any request.
	c, _, err := ExpandAndExtractCoords(ctx, client, "https://example.org/maps/@51.5,-0.1,15z")
	if err != nil || c.Lat != 51.5 {
		t.Errorf("long link: %+v, %v", c, err)
	}
}

func TestAllowedHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"maps.app.goo.gl", true},
		{"goo.gl", true},
		{"google.com", true},
		{"www.google.co.uk", true},
		{"maps.google.com.au", true},
		{"WWW.GOOGLE.DE", true},
		{"google.com.evil.example", false},
		{"evilgoogle.com", false},
		{"mail.google.com", false},
		{"127.0.0.1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := AllowedHost(tt.host); got != tt.want {
			t.Errorf("AllowedHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
