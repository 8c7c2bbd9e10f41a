// Package geocode turns free text into place suggestions using a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

// MaxResults is how many suggestions one search returns.
const MaxResults = 6

// Suggestion is one candidate location.
type Suggestion struct {
	PlaceID     int64   `json:"placeId"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// maxNameLen matches the place name rule.
const maxNameLen = 80

// PlaceInput pre-fills a new place from the suggestion.
func (s Suggestion) PlaceInput() domain.PlaceInput {
	name := s.DisplayName
	if utf8.RuneCountInString(name) > maxNameLen {
		name = strings.TrimSpace(string([]rune(name)[:maxNameLen]))
	}
	lat, lng := s.Lat, s.Lng
	return domain.PlaceInput{Name: name, Lat: &lat, Lng: &lng}
}

// nominatim returns coordinates as strings.
type nominatimResult struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Search asks the geocoder for at most MaxResults matches of q.
// Results with unparsable coordinates are skipped.
func (c *Client) Search(ctx context.Context, q string) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(MaxResults))
	params.Set("q", q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode search: unexpected status %s", resp.Status)
	}

	var raw []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("geocode search: decode: %w", err)
	}

	out := make([]Suggestion, 0, len(raw))
	for _, r := range raw {
		lat, err1 := strconv.ParseFloat(r.Lat, 64)
		lng, err2 := strconv.ParseFloat(r.Lon, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, Suggestion{PlaceID: r.PlaceID, DisplayName: r.DisplayName, Lat: lat, Lng: lng})
		if len(out) == MaxResults {
			break
		}
	}
	return out, nil
}
