package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/models"
)

// Client failure sentinels, distinguished for observability. Callers collapse
// all of them to "coordinates unavailable".
var (
	errNoToken    = fmt.Errorf("geocoding access token not configured")
	errEmptyQuery = fmt.Errorf("empty geocoding query")
	errNoResults  = fmt.Errorf("no geocoding results")
)

// Client calls the external forward/reverse geocoding API. Requests carry the
// access token, a result limit of 1, a bounded timeout, and pass through a
// process-wide rate limiter.
type Client struct {
	config     *common.GeocodeConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(config *common.GeocodeConfig, logger arbor.ILogger) *Client {
	rps := config.RateLimit
	if rps <= 0 {
		rps = common.DefaultGeocodeRateLimit
	}
	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.RequestTimeoutDuration(),
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type geoFeatureContext struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}

type geoFeature struct {
	Center  []float64           `json:"center"` // [lng, lat]
	Text    string              `json:"text"`
	Context []geoFeatureContext `json:"context"`
}

type geocodeResponse struct {
	Features []geoFeature `json:"features"`
}

// Forward resolves a free-text place query to coordinates.
func (c *Client) Forward(ctx context.Context, query string) (models.Coordinates, error) {
	feature, err := c.search(ctx, query, "place")
	if err != nil {
		return models.Coordinates{}, err
	}
	if len(feature.Center) < 2 {
		return models.Coordinates{}, errNoResults
	}
	return models.Coordinates{Lat: feature.Center[1], Lng: feature.Center[0]}, nil
}

// ReverseZip resolves a zip code to its city and region code.
func (c *Client) ReverseZip(ctx context.Context, zip string) (city, state string, err error) {
	feature, err := c.search(ctx, zip, "postcode")
	if err != nil {
		return "", "", err
	}
	for _, cx := range feature.Context {
		switch {
		case strings.HasPrefix(cx.ID, "place."):
			city = cx.Text
		case strings.HasPrefix(cx.ID, "region."):
			// short_code looks like "US-TX"
			if idx := strings.LastIndex(cx.ShortCode, "-"); idx >= 0 {
				state = cx.ShortCode[idx+1:]
			}
		}
	}
	if city == "" || state == "" {
		return "", "", errNoResults
	}
	return city, state, nil
}

func (c *Client) search(ctx context.Context, query, types string) (*geoFeature, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errEmptyQuery
	}
	if c.config.AccessToken == "" {
		return nil, errNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("access_token", c.config.AccessToken)
	params.Set("limit", "1")
	params.Set("country", "us")
	params.Set("types", types)

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building geocoding request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling geocoding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}

	var apiResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding geocoding response: %w", err)
	}
	if len(apiResp.Features) == 0 {
		return nil, errNoResults
	}
	return &apiResp.Features[0], nil
}
