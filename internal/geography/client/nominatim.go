package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ecoleta_backend/platform/logger"
)

const userAgent = "EcoletaBackend/1.0"

// Place is the locality resolved for a coordinate pair.
type Place struct {
	UF          string
	City        string
	DisplayName string
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	ISOLevel4    string `json:"ISO3166-2-lvl4"`
	CountryCode  string `json:"country_code"`
}

// nominatimResponse mirrors the relevant parts of the OSM reverse payload.
type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Error       string           `json:"error"`
	Address     nominatimAddress `json:"address"`
}

// Nominatim resolves coordinates to a UF and city.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewNominatim creates a reverse geocoding client.
func NewNominatim(baseURL string, timeout time.Duration, log *logger.Logger) *Nominatim {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Reverse looks up the place at lat,lng. found is false when the point is
// outside Brazil or not resolvable.
func (c *Nominatim) Reverse(ctx context.Context, lat, lng float64) (place Place, found bool, err error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Place{}, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, false, fmt.Errorf("nominatim request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Place{}, false, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var raw nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Place{}, false, fmt.Errorf("nominatim decode: %w", err)
	}

	return buildPlace(raw)
}

func buildPlace(raw nominatimResponse) (Place, bool, error) {
	if raw.Error != "" || !strings.EqualFold(raw.Address.CountryCode, "br") {
		return Place{}, false, nil
	}

	uf := strings.TrimPrefix(strings.ToUpper(raw.Address.ISOLevel4), "BR-")
	if len(uf) != 2 {
		return Place{}, false, nil
	}

	return Place{
		UF:          uf,
		City:        pickCity(raw.Address),
		DisplayName: raw.DisplayName,
	}, true, nil
}

func pickCity(address nominatimAddress) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	return address.Municipality
}
