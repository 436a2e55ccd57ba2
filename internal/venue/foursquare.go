package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FoursquareProvider searches the Foursquare v2 venues endpoint.
type FoursquareProvider struct {
	baseURL      string
	clientID     string
	clientSecret string
	version      string
	client       *http.Client
}

func NewFoursquareProvider(baseURL, clientID, clientSecret, version string) *FoursquareProvider {
	if strings.TrimSpace(version) == "" {
		version = "20160815"
	}
	return &FoursquareProvider{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		version:      version,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResponse struct {
	Meta struct {
		Code        int    `json:"code"`
		ErrorType   string `json:"errorType"`
		ErrorDetail string `json:"errorDetail"`
	} `json:"meta"`
	Response struct {
		Venues []struct {
			Name     string `json:"name"`
			Location struct {
				Address     string `json:"address"`
				CrossStreet string `json:"crossStreet"`
				City        string `json:"city"`
				State       string `json:"state"`
			} `json:"location"`
		} `json:"venues"`
	} `json:"response"`
}

func (p *FoursquareProvider) Search(ctx context.Context, near, query string) ([]Venue, error) {
	params := url.Values{}
	params.Set("near", near)
	if query != "" {
		params.Set("query", query)
	}
	params.Set("client_id", p.clientID)
	params.Set("client_secret", p.clientSecret)
	params.Set("v", p.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v2/venues/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: status %d", ErrProvider, res.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 || (out.Meta.Code != 0 && out.Meta.Code != http.StatusOK) {
		return nil, fmt.Errorf("%w: status %d %s: %s", ErrProvider, res.StatusCode, out.Meta.ErrorType, out.Meta.ErrorDetail)
	}

	venues := make([]Venue, 0, len(out.Response.Venues))
	for _, v := range out.Response.Venues {
		venues = append(venues, Venue{
			Name:        v.Name,
			Address:     v.Location.Address,
			CrossStreet: v.Location.CrossStreet,
			City:        v.Location.City,
			State:       v.Location.State,
		})
	}
	return venues, nil
}
