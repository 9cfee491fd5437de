// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

// square returns a closed ring of side ~d degrees with lower left corner (lon, lat).
func square(lon, lat, d float64) orb.Polygon {
	return orb.Polygon{{
		{lon, lat},
		{lon + d, lat},
		{lon + d, lat + d},
		{lon, lat + d},
		{lon, lat},
	}}
}

type fixtureParcel struct {
	id         string
	commune    string
	contenance float64
	geometry   orb.Geometry
}

var fixtureParcels = []fixtureParcel{
	{"141180000A_0012", "14118", 469, square(-0.3710, 49.1827, 0.0002)},
	{"141180000B_0040", "14118", 1200, square(-0.3650, 49.1850, 0.0004)},
	{"140360000C_0007", "14036", 469, square(-0.7030, 49.2760, 0.0002)},
	{"141180000D_0101", "14118", 469, orb.MultiPolygon{square(-0.3600, 49.1900, 0.0002)}},
	{"14762000AE_0003", "14762", 85, square(-0.3550, 49.2000, 0.0001)},
}

func featureCollection(t *testing.T, parcels []fixtureParcel) []byte {
	t.Helper()

	fc := geojson.NewFeatureCollection()

	for _, p := range parcels {
		f := geojson.NewFeature(p.geometry)
		f.ID = p.id
		f.Properties["id"] = p.id
		f.Properties["commune"] = p.commune
		f.Properties["contenance"] = p.contenance
		f.Properties["section"] = "0A"
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	require.NoError(t, err)

	return data
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func fixtureDataset(t *testing.T) *Dataset {
	t.Helper()

	ds, err := Decode(bytes.NewReader(featureCollection(t, fixtureParcels)))
	require.NoError(t, err)

	ds.Region = "14"

	return ds
}

// datasetServer serves payloads by département and counts requests.
type datasetServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newDatasetServer(t *testing.T, payloads map[string][]byte) *datasetServer {
	t.Helper()

	s := &datasetServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)

		// /{millesime}/{dept}.json.gz
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if len(parts) != 2 {
			http.NotFound(w, r)

			return
		}

		payload, ok := payloads[strings.TrimSuffix(parts[1], ".json.gz")]
		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "application/gzip")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *datasetServer) loader() *Loader {
	return NewLoader(s.Client(), LoaderOptions{
		URLTemplate: s.URL + "/{millesime}/{dept}.json.gz",
		Millesime:   "2025-04-01",
	}, nil)
}

// stubNamer resolves from a map; unknown codes fail.
type stubNamer struct {
	names map[string]string
	calls atomic.Int32
}

func (s *stubNamer) LookupName(_ context.Context, code string) (string, error) {
	s.calls.Add(1)

	if name, ok := s.names[code]; ok {
		return name, nil
	}

	return "", fmt.Errorf("commune %s: %w", code, errNameNotFound)
}
