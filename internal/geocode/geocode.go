// Package geocode talks to a Nominatim-compatible place lookup service.
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

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/geo"
)

// Place is a forward-geocoding match.
type Place struct {
	Label      string         `json:"label"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// Client queries the geocoder over HTTP.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates a client for baseURL (e.g. "https://nominatim.openstreetmap.org").
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Reverse returns the address label for c.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (string, error) {
	if err := coord.Validate(); err != nil {
		return "", apperr.Validation("location", err.Error())
	}
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coord.Lng, 'f', -1, 64))

	var out reverseResponse
	if err := c.get(ctx, "/reverse", q, &out); err != nil {
		return "", err
	}
	if out.Error != "" || out.DisplayName == "" {
		return "", apperr.New(apperr.KindGeoUnavailable, "no address found for this location")
	}
	return out.DisplayName, nil
}

// Forward returns the best match for a free-text place name.
func (c *Client) Forward(ctx context.Context, text string) (Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Place{}, apperr.Validation("q", "search text is required")
	}
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("countrycodes", "np")
	q.Set("q", text)

	var out []searchResult
	if err := c.get(ctx, "/search", q, &out); err != nil {
		return Place{}, err
	}
	if len(out) == 0 {
		return Place{}, apperr.New(apperr.KindNotFound, "no place matches the search")
	}
	lat, err1 := strconv.ParseFloat(out[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(out[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Place{}, apperr.New(apperr.KindGeoUnavailable, "geocoder returned a malformed coordinate")
	}
	return Place{Label: out[0].DisplayName, Coordinate: geo.Coordinate{Lat: lat, Lng: lng}}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return apperr.Wrap(apperr.KindGeoUnavailable, "location lookup is unavailable", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindGeoUnavailable, "location lookup is unavailable", fmt.Errorf("geocode request failed: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperr.Wrap(apperr.KindGeoUnavailable, "location lookup is unavailable", fmt.Errorf("geocoder status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindGeoUnavailable, "location lookup is unavailable", err)
	}
	return nil
}
