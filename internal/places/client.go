package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Google Maps web services root.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	// MinAutocompleteInput is the shortest input sent upstream.
	MinAutocompleteInput = 3

	// LocationUnavailable is returned when reverse geocoding fails.
	LocationUnavailable = "location unavailable"
)

// Prediction is one address suggestion.
type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Config configures the Google client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Country  string
	Timeout  time.Duration
}

// Client calls Google Places Autocomplete and the Geocoding API. Upstream
// failures never surface as errors.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a new Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type autocompleteResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Predictions  []Prediction `json:"predictions"`
}

// Autocomplete returns address suggestions for input. Inputs shorter than
// MinAutocompleteInput characters and upstream errors yield an empty list.
func (c *Client) Autocomplete(ctx context.Context, input string) []Prediction {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < MinAutocompleteInput {
		return []Prediction{}
	}

	q := url.Values{}
	q.Set("input", input)
	q.Set("key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}
	if c.cfg.Country != "" {
		q.Set("components", "country:"+c.cfg.Country)
	}

	var resp autocompleteResponse
	if err := c.get(ctx, "/place/autocomplete/json", q, &resp); err != nil {
		c.logger.Warn("places autocomplete failed", zap.Error(err))
		return []Prediction{}
	}
	if err := apiStatus(resp.Status, resp.ErrorMessage); err != nil {
		c.logger.Warn("places autocomplete rejected", zap.Error(err))
		return []Prediction{}
	}
	if resp.Predictions == nil {
		return []Prediction{}
	}
	return resp.Predictions
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// ReverseGeocode returns a "number street, city" label for a position, or
// LocationUnavailable.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}

	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", q, &resp); err != nil {
		c.logger.Warn("reverse geocode failed", zap.Error(err))
		return LocationUnavailable
	}
	if err := apiStatus(resp.Status, resp.ErrorMessage); err != nil {
		c.logger.Warn("reverse geocode rejected", zap.Error(err))
		return LocationUnavailable
	}
	if len(resp.Results) == 0 {
		return LocationUnavailable
	}

	first := resp.Results[0]
	var number, street, city string
	for _, comp := range first.AddressComponents {
		for _, typ := range comp.Types {
			switch typ {
			case "street_number":
				number = comp.LongName
			case "route":
				street = comp.LongName
			case "locality":
				city = comp.LongName
			}
		}
	}
	if street == "" && city == "" {
		if first.FormattedAddress != "" {
			return first.FormattedAddress
		}
		return LocationUnavailable
	}
	return strings.TrimSpace(strings.TrimSpace(number+" "+street) + ", " + city)
}

// apiStatus turns a Google status other than OK or ZERO_RESULTS (a bad key,
// an exhausted quota) into an error. An empty status is treated as OK.
func apiStatus(status, message string) error {
	switch status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	}
	if message != "" {
		return fmt.Errorf("google maps status %s: %s", status, message)
	}
	return fmt.Errorf("google maps status %s", status)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
