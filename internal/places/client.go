// Package places queries the Google Places API for restaurants near a
// coordinate and builds the photo and map URLs shown on result cards.
package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/garyellow/whattoeat-linebot/internal/apiclient"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
)

// DefaultBaseURL is the Places API root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// PhotoMaxWidth is the maxwidth requested for card thumbnails.
const PhotoMaxWidth = 1024

// Status values returned by the Places API.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// Client is a Google Places API client.
type Client struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
}

// NewClient creates a Places client. An empty baseURL uses DefaultBaseURL.
func NewClient(api *apiclient.Client, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{api: api, apiKey: apiKey, baseURL: baseURL}
}

// SearchNearby returns restaurants around (lat, lng) ordered by distance,
// in the order the API returned them. ZERO_RESULTS is an empty slice.
func (c *Client) SearchNearby(ctx context.Context, lat, lng float64) ([]Restaurant, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("location", formatLatLng(lat, lng))
	q.Set("rankby", "distance")
	q.Set("type", "restaurant")
	q.Set("language", "zh-TW")

	var resp nearbySearchResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/nearbysearch/json?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	switch resp.Status {
	case StatusOK:
	case StatusZeroResults:
		return []Restaurant{}, nil
	default:
		// REQUEST_DENIED and INVALID_REQUEST come back as HTTP 200.
		return nil, domerrors.NewAPIError("places", c.baseURL+"/nearbysearch/json", http.StatusBadRequest,
			fmt.Errorf("status %s: %s", resp.Status, resp.ErrorMessage))
	}

	restaurants := make([]Restaurant, 0, len(resp.Results))
	for _, p := range resp.Results {
		restaurants = append(restaurants, p.toRestaurant())
	}
	return restaurants, nil
}

// PhotoURL builds a Place Photo URL for ref. LINE fetches it directly, so
// the key is embedded.
func (c *Client) PhotoURL(ref string) string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("photoreference", ref)
	q.Set("maxwidth", strconv.Itoa(PhotoMaxWidth))
	return c.baseURL + "/photo?" + q.Encode()
}

// MapURL builds a Google Maps search link pinned to the place.
func MapURL(r Restaurant) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", formatLatLng(r.Lat, r.Lng))
	if r.PlaceID != "" {
		q.Set("query_place_id", r.PlaceID)
	}
	return "https://www.google.com/maps/search/?" + q.Encode()
}

// ValidateCoordinates rejects out of range latitude or longitude.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range", domerrors.ErrInvalidInput, lat, lng)
	}
	return nil
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
