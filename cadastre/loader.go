// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/cadastre/utils/httputils"
	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb/geojson"
)

// LoaderOptions locates the département extracts.
type LoaderOptions struct {
	// URLTemplate with {millesime} and {dept} placeholders
	URLTemplate string
	// Millesime is the Etalab release, e.g. "2025-04-01"
	Millesime string
}

// Loader downloads and decodes the parcels of a département. Results are
// memoized per département code for the lifetime of the cache.
type Loader struct {
	client  *http.Client
	options LoaderOptions
	cache   *Cache[string, *Dataset]
}

// NewLoader creates a loader. A nil cache gets a private one.
func NewLoader(client *http.Client, options LoaderOptions, cache *Cache[string, *Dataset]) *Loader {
	if cache == nil {
		cache = NewCache[string, *Dataset](StringKey)
	}

	return &Loader{
		client:  client,
		options: options,
		cache:   cache,
	}
}

// DatasetURL returns where the parcels of a département are published.
func (l *Loader) DatasetURL(region string) string {
	return strings.NewReplacer(
		"{millesime}", url.PathEscape(l.options.Millesime),
		"{dept}", url.PathEscape(region),
	).Replace(l.options.URLTemplate)
}

// Load returns the parcels of a département, downloading them on first use.
// The download is shared by concurrent callers and is not canceled with the
// caller's context; the client timeout bounds it.
func (l *Loader) Load(ctx context.Context, region string) (*Dataset, error) {
	return l.cache.GetOrCompute(region, func() (*Dataset, error) {
		return l.fetch(context.WithoutCancel(ctx), region)
	})
}

func (l *Loader) fetch(ctx context.Context, region string) (*Dataset, error) {
	u := l.DatasetURL(region)
	start := time.Now()

	log.Printf("Downloading parcels of département %s from %s", region, u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newError(ErrorTypeFetch, err, "building request for %s", u)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, newError(ErrorTypeFetch, err, "fetching %s", u)
	}
	defer resp.Body.Close()

	if err := httputils.CheckStatus(resp); err != nil {
		e := ClassifyHTTPError(resp.StatusCode, u)
		e.Err = err

		return nil, e
	}

	// the whole body is read before decoding so that a network failure half
	// way reports as a fetch error and not as a corrupt payload
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrorTypeFetch, err, "reading %s", u)
	}

	ds, err := Decode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	ds.Region = region
	ds.Source = u

	log.Printf("Loaded %d parcels of département %s in %v", ds.Len(), region, time.Since(start).Round(time.Millisecond))

	return ds, nil
}

// Decode parses a (possibly gzipped) GeoJSON FeatureCollection of parcels.
func Decode(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br

	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, newError(ErrorTypeDecode, err, "opening gzip stream")
		}
		defer gz.Close()

		src = gz
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, newError(ErrorTypeDecode, err, "decompressing dataset")
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, newError(ErrorTypeDecode, err, "parsing GeoJSON")
	}

	ds := &Dataset{
		CRS:     crsName(fc),
		Parcels: make([]*Parcel, 0, len(fc.Features)),
	}

	for i, f := range fc.Features {
		p, err := newParcel(f)
		if err != nil {
			return nil, newError(ErrorTypeDecode, err, "feature #%d", i)
		}

		ds.Parcels = append(ds.Parcels, p)
	}

	return ds, nil
}

// crsName reads the legacy (2008) "crs" member of GeoJSON.
func crsName(fc *geojson.FeatureCollection) string {
	crs, ok := fc.ExtraMembers["crs"].(map[string]any)
	if !ok {
		return CRS84
	}

	props, ok := crs["properties"].(map[string]any)
	if !ok {
		return CRS84
	}

	if name, ok := props["name"].(string); ok && name != "" {
		return name
	}

	return CRS84
}

func newParcel(f *geojson.Feature) (*Parcel, error) {
	if f.Geometry == nil {
		return nil, errors.New("missing geometry")
	}

	commune := propString(f.Properties, "commune")
	if commune == "" {
		return nil, errors.New("missing commune")
	}

	id := propString(f.Properties, "id")
	if id == "" && f.ID != nil {
		id = fmt.Sprint(f.ID)
	}

	return &Parcel{
		ID:         id,
		Commune:    commune,
		Contenance: propFloat(f.Properties, "contenance"),
		Properties: f.Properties,
		Geometry:   f.Geometry,
	}, nil
}

func propString(props geojson.Properties, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// propFloat returns NaN for missing or non numeric values, so that the
// parcel never matches a surface.
func propFloat(props geojson.Properties, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}

		return f
	default:
		return math.NaN()
	}
}
