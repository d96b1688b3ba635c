// Package client provides HTTP clients for the IBGE localities API and the
// Nominatim reverse geocoder.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ecoleta_backend/platform/logger"
)

const defaultHTTPTimeout = 10 * time.Second

// State is one record of GET /estados/.
type State struct {
	ID    int    `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

// Municipality is one record of GET /estados/{uf}/municipios.
type Municipality struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

// IBGE talks to the IBGE localities API.
type IBGE struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewIBGE creates an IBGE client. A zero timeout falls back to 10s.
func NewIBGE(baseURL string, timeout time.Duration, log *logger.Logger) *IBGE {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &IBGE{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// ListStates returns every federative unit in response order.
func (c *IBGE) ListStates(ctx context.Context) ([]State, error) {
	var states []State
	if err := c.getJSON(ctx, c.baseURL+"/estados/", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// ListMunicipalities returns the municipalities of uf in response order.
func (c *IBGE) ListMunicipalities(ctx context.Context, uf string) ([]Municipality, error) {
	var municipalities []Municipality
	reqURL := fmt.Sprintf("%s/estados/%s/municipios", c.baseURL, url.PathEscape(uf))
	if err := c.getJSON(ctx, reqURL, &municipalities); err != nil {
		return nil, err
	}
	return municipalities, nil
}

func (c *IBGE) getJSON(ctx context.Context, reqURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ibge request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ibge status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("ibge decode: %w", err)
	}
	return nil
}
