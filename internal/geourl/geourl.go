package geourl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/susu3304/snacknav/internal/geoscore"
)

var (
	ErrNoCoordinates  = errors.New("coordinates not found")
	ErrHostNotAllowed = errors.New("only Google Maps links are accepted")
)

const maxRedirects = 10

var (
	reAt     = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	re3d4d   = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	reSearch = regexp.MustCompile(`/maps/search/(-?\d+(?:\.\d+)?),(?:\+|\s|%20)*(-?\d+(?:\.\d+)?)`)
	rePair   = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

	// google.com, www.google.co.uk, maps.google.com.au ...
	reGoogleHost = regexp.MustCompile(`^(?:(?:www|maps)\.)?google\.(?:[a-z]{2,3}|co\.[a-z]{2}|com\.[a-z]{2})$`)
)

// AllowedHost reports whether links on host may be fetched.
func AllowedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	switch host {
	case "goo.gl", "maps.app.goo.gl":
		return true
	}
	return reGoogleHost.MatchString(host)
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("too many redirects")
	}
	if !AllowedHost(req.URL.Hostname()) {
		return ErrHostNotAllowed
	}
	return nil
}

// NewClient returns an HTTP client that follows at most 10 redirects, all of
// them on Google Maps hosts.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
	}
}

// ParsePair parses a bare "lat,lng" string.
func ParsePair(s string) (geoscore.Coord, bool) {
	m := rePair.FindStringSubmatch(s)
	if len(m) != 3 {
		return geoscore.Coord{}, false
	}
	return parse2(m[1], m[2])
}

// ExpandAndExtractCoords resolves input to a coordinate. A bare "lat,lng" is
// parsed directly; a Google Maps link, short or long, is followed and the
// coordinates are read from the final URL. Only Google Maps hosts are ever
// fetched, including every redirect hop.
func ExpandAndExtractCoords(ctx context.Context, client *http.Client, input string) (coord geoscore.Coord, finalURL string, err error) {
	input = strings.TrimSpace(input)
	if c, ok := ParsePair(input); ok {
		return c, input, nil
	}
	// Long links already carry the coordinates.
	if c, ok := extractFromURL(input); ok {
		return c, input, nil
	}

	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return geoscore.Coord{}, "", fmt.Errorf("%w: not a link or lat,lng pair", ErrNoCoordinates)
	}
	if !AllowedHost(u.Hostname()) {
		return geoscore.Coord{}, "", fmt.Errorf("%w: %w", ErrNoCoordinates, ErrHostNotAllowed)
	}
	if client == nil {
		client = NewClient(0)
	}
	// Callers may hand in their own client; the host check applies regardless.
	guarded := *client
	guarded.CheckRedirect = checkRedirect

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
	if err != nil {
		return geoscore.Coord{}, "", err
	}
	// Some endpoints behave better with a UA.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SnackNav/1.0)")
	req.Header.Set("Accept-Language", "en;q=0.8")

	resp, err := guarded.Do(req)
	if err != nil {
		if errors.Is(err, ErrHostNotAllowed) {
			return geoscore.Coord{}, "", fmt.Errorf("%w: %w", ErrNoCoordinates, ErrHostNotAllowed)
		}
		return geoscore.Coord{}, "", fmt.Errorf("failed to follow link: %w", err)
	}
	defer resp.Body.Close()

	// After redirects, this is the final URL.
	if resp.Request == nil || resp.Request.URL == nil {
		return geoscore.Coord{}, "", errors.New("failed to determine final URL")
	}
	finalURL = resp.Request.URL.String()

	c, ok := extractFromURL(finalURL)
	if !ok {
		return geoscore.Coord{}, finalURL, fmt.Errorf("%w in final URL", ErrNoCoordinates)
	}
	return c, finalURL, nil
}

func extractFromURL(s string) (geoscore.Coord, bool) {
	// Pattern A: .../@lat,lng,zoom...
	if m := reAt.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	// Pattern B: ...!3dlat!4dlng...
	if m := re3d4d.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	// Pattern C: /maps/search/lat,lng
	if m := reSearch.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}

	// Pattern D: query params like ?q=lat,lng or ?query=lat,lng
	u, err := url.Parse(s)
	if err == nil {
		for _, key := range []string{"q", "query"} {
			if v := u.Query().Get(key); v != "" {
				if c, ok := ParsePair(v); ok {
					return c, true
				}
			}
		}
	}

	return geoscore.Coord{}, false
}

func parse2(a, b string) (geoscore.Coord, bool) {
	la, err1 := strconv.ParseFloat(a, 64)
	lo, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil {
		return geoscore.Coord{}, false
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return geoscore.Coord{}, false
	}
	return geoscore.Coord{Lat: la, Lng: lo}, true
}
