package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"relish/internal/services"
)

// Place is a single locality entry in a postal lookup response.
type Place struct {
	Name      string `json:"place name"`
	State     string `json:"state"`
	StateCode string `json:"state abbreviation"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Response models the postal lookup payload.
type Response struct {
	PostCode    string  `json:"post code"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country abbreviation"`
	Places      []Place `json:"places"`
}

// PrimaryPlace returns the first place in the response, which the provider
// lists as the canonical locality for the postal code.
func (r *Response) PrimaryPlace() (Place, bool) {
	if r == nil || len(r.Places) == 0 {
		return Place{}, false
	}
	return r.Places[0], true
}

// Lookuper defines the postal lookup operation used by location resolution.
type Lookuper interface {
	Lookup(ctx context.Context, postalCode string) (*Response, error)
}

// Client provides access to a zippopotam-style postal lookup API.
type Client struct {
	baseURL    string
	country    string
	httpClient *http.Client
}

var _ Lookuper = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a postal lookup client.
func New(baseURL, country string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("geocoder base url required")
	}
	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		return nil, errors.New("geocoder country required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		country:    country,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Lookup fetches the localities registered for a postal code.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*Response, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, services.Wrap(services.ErrValidation, "geocode", "lookup", "postal code must not be empty", nil)
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/%s/%s", c.baseURL, c.country, url.PathEscape(postalCode)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "geocode", "lookup", "parse lookup url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "geocode", "lookup", "build request", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if isTimeout(err) {
			return nil, services.Wrap(services.ErrTimeout, "geocode", "lookup",
				fmt.Sprintf("postal code %s lookup timed out (latency=%v)", postalCode, latency), err)
		}
		return nil, services.Wrap(services.ErrTransient, "geocode", "lookup",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "geocode", "lookup",
			fmt.Sprintf("postal code %s not found", postalCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrTransient, "geocode", "lookup",
			fmt.Sprintf("lookup returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.DisallowUnknownFields()
	var payload Response
	if err := decoder.Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrExternal, "geocode", "lookup", "decode lookup response", err)
	}
	if len(payload.Places) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "geocode", "lookup",
			fmt.Sprintf("postal code %s has no places", postalCode), nil)
	}
	return &payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
