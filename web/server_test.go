// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/cadastre/cadastre"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapNamer map[string]string

func (m mapNamer) LookupName(_ context.Context, code string) (string, error) {
	if n, ok := m[code]; ok {
		return n, nil
	}

	return "", fmt.Errorf("commune %s not found", code)
}

func parcel(id, commune string, contenance, lon, lat float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{
		{lon, lat}, {lon + 0.0002, lat}, {lon + 0.0002, lat + 0.0002}, {lon, lat + 0.0002}, {lon, lat},
	}})
	f.Properties["id"] = id
	f.Properties["commune"] = commune
	f.Properties["contenance"] = contenance

	return f
}

func setupServerTest(t *testing.T) (*gin.Engine, *atomic.Int32) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fc := geojson.NewFeatureCollection()
	fc.Append(parcel("141180000A_0012", "14118", 469, -0.3710, 49.1827))
	fc.Append(parcel("141180000B_0040", "14118", 1200, -0.3650, 49.1850))
	fc.Append(parcel("140360000C_0007", "14036", 469, -0.7030, 49.2760))
	fc.Append(parcel("140360000C_0008", "14036", 85, -0.7010, 49.2760))

	payload, err := fc.MarshalJSON()
	require.NoError(t, err)

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		switch r.URL.Path {
		case "/14.json":
			_, _ = w.Write(payload)
		case "/99.json":
			_, _ = w.Write([]byte("<html>oops</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	loader := cadastre.NewLoader(srv.Client(), cadastre.LoaderOptions{URLTemplate: srv.URL + "/{dept}.json"}, nil)
	resolver := cadastre.NewResolver(mapNamer{"14118": "Caen", "14036": "Bayeux"}, cadastre.ResolverOptions{}, nil)
	pipeline := cadastre.NewPipeline(loader, resolver, cadastre.PipelineOptions{H3Resolution: 11})

	return NewServer(pipeline).Router(), &hits
}

func get(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	return w
}

func TestListCommunesAPI(t *testing.T) {
	router, _ := setupServerTest(t)

	w := get(t, router, "/api/departements/14/communes")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Departement string   `json:"departement"`
		Total       int      `json:"total"`
		Communes    []string `json:"communes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, []string{"Bayeux (14036)", "Caen (14118)"}, body.Communes)

	w = get(t, router, "/api/departements/14/communes?match=CAE")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Caen (14118)"}, body.Communes)

	w = get(t, router, "/api/departements/14/communes?match=zzz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"communes":[]`)
}

func TestSearchAPI(t *testing.T) {
	router, hits := setupServerTest(t)

	w := get(t, router, "/api/search?dept=14&commune=Caen%20(14118)&commune=14036&surface=469")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Count     int                 `json:"count"`
		Codes     []string            `json:"codes"`
		Rows      []cadastre.Row      `json:"rows"`
		MapPoints []cadastre.MapPoint `json:"map_points"`
		CSV       string              `json:"csv"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"14118", "14036"}, body.Codes)
	assert.Len(t, body.MapPoints, 2)
	assert.Equal(t, "parcelles_14118_14036_469m2.csv", body.CSV)
	assert.Equal(t, "Caen", body.Rows[0].NomCommune)
	assert.Equal(t, "0012", body.Rows[0].NomParcelle)
	assert.True(t, strings.HasPrefix(body.Rows[0].URLGeoportail, "https://www.geoportail.gouv.fr/carte?c="))

	w = get(t, router, "/api/search?dept=14&commune=14118,14036&surface=85")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	w = get(t, router, "/api/search?dept=14&commune=14118&surface=12345")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":[]`)
	assert.Contains(t, w.Body.String(), `"map_points":[]`)

	assert.Equal(t, int32(1), hits.Load())
}

func TestSearchAPIErrors(t *testing.T) {
	router, hits := setupServerTest(t)

	tests := []struct {
		name   string
		url    string
		status int
		field  string
	}{
		{"missing commune", "/api/search?dept=14&surface=469", http.StatusBadRequest, "communes"},
		{"bad surface", "/api/search?dept=14&commune=14118&surface=abc", http.StatusBadRequest, "surface"},
		{"zero surface", "/api/search?dept=14&commune=14118&surface=0", http.StatusBadRequest, "surface"},
		{"bad departement", "/api/search?dept=1234&commune=14118&surface=469", http.StatusBadRequest, "departement"},
		{"unknown departement", "/api/search?dept=50&commune=50129&surface=469", http.StatusBadGateway, ""},
		{"corrupt dataset", "/api/search?dept=99&commune=99001&surface=469", http.StatusBadGateway, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(t, router, tc.url)
			assert.Equal(t, tc.status, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, tc.field, body["field"])
		})
	}

	// only the two département downloads reached the network
	assert.Equal(t, int32(2), hits.Load())
}

func TestSearchCSVAPI(t *testing.T) {
	router, _ := setupServerTest(t)

	w := get(t, router, "/api/search.csv?dept=14&commune=14118&surface=469")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, `attachment; filename="parcelles_14118_469m2.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "nom_parcelle", records[0][0])
	assert.Equal(t, []string{"0012", "14118", "Caen", "469"}, records[1][:4])
}

func TestSearchGeoJSONAPI(t *testing.T) {
	router, _ := setupServerTest(t)

	w := get(t, router, "/api/search.geojson?dept=14&commune=14118&commune=14036&surface=469")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Point", fc.Features[0].Geometry.GeoJSONType())
}

func TestMetricsAPI(t *testing.T) {
	router, _ := setupServerTest(t)

	require.Equal(t, http.StatusOK, get(t, router, "/api/search?dept=14&commune=14118&surface=469").Code)
	require.Equal(t, http.StatusBadRequest, get(t, router, "/api/search?dept=14&surface=469").Code)
	require.Equal(t, http.StatusNotFound, get(t, router, "/nope").Code)

	w := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `cadastre_http_requests_total{code="200",route="/api/search"} 1`)
	assert.Contains(t, body, `cadastre_http_requests_total{code="400",route="/api/search"} 1`)
	assert.Contains(t, body, `cadastre_http_requests_total{code="404",route="unmatched"} 1`)
	assert.Contains(t, body, "cadastre_search_rows_count 1")
	assert.Contains(t, body, "cadastre_search_rows_sum 1")
}
