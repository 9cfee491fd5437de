// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcodagnone/cadastre/utils/httputils"
)

var errNameNotFound = errors.New("commune has no name")

// CommuneNamer resolves an INSEE commune code to the commune name.
type CommuneNamer interface {
	LookupName(ctx context.Context, code string) (string, error)
}

// GeoAPINamer uses the geo.api.gouv.fr communes endpoint.
type GeoAPINamer struct {
	httpClient  *http.Client
	urlTemplate string
	timeout     time.Duration
}

// NewGeoAPINamer creates a namer. urlTemplate must contain {code}.
func NewGeoAPINamer(client *http.Client, urlTemplate string, timeout time.Duration) *GeoAPINamer {
	return &GeoAPINamer{
		httpClient:  client,
		urlTemplate: urlTemplate,
		timeout:     timeout,
	}
}

type geoAPICommune struct {
	Nom  string `json:"nom"`
	Code string `json:"code"`
}

// LookupName implements CommuneNamer.
func (g *GeoAPINamer) LookupName(ctx context.Context, code string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reqURL := strings.ReplaceAll(g.urlTemplate, "{code}", url.PathEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("commune lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputils.CheckStatus(resp); err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("commune %s: unexpected status %d", code, resp.StatusCode)
	}

	var commune geoAPICommune
	if err := json.NewDecoder(resp.Body).Decode(&commune); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if commune.Nom == "" {
		return "", fmt.Errorf("commune %s: %w", code, errNameNotFound)
	}

	return commune.Nom, nil
}
