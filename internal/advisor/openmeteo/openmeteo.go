// Package openmeteo reads current temperature and humidity from Open-Meteo.
package openmeteo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vbonduro/plantcare/internal/advisor"
)

const DefaultBaseURL = "https://api.open-meteo.com/v1"

type OpenMeteoLookup struct {
	baseURL string
	client  *http.Client
}

func NewOpenMeteoLookup(baseURL string) *OpenMeteoLookup {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenMeteoLookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type forecast struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
		Humidity    *float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

func (l *OpenMeteoLookup) Current(ctx context.Context, lat, lon float64) (*advisor.Conditions, error) {
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return nil, fmt.Errorf("coordinates out of range: %g,%g", lat, lon)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call open-meteo: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close open-meteo response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open-meteo returned status %d: %s", resp.StatusCode, errBody)
	}

	var f forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if f.Current.Temperature == nil || f.Current.Humidity == nil {
		return nil, fmt.Errorf("open-meteo response missing current readings")
	}
	return &advisor.Conditions{TempC: *f.Current.Temperature, RH: *f.Current.Humidity}, nil
}
