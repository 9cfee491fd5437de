// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jcodagnone/cadastre/spatial"
	"github.com/paulmach/orb/geojson"
	"github.com/uber/h3-go/v4"
)

// Row is one matching parcel, ready for display or export.
type Row struct {
	NomParcelle string  `json:"nom_parcelle"`
	CodeInsee   string  `json:"code_insee"`
	NomCommune  string  `json:"nom_commune"`
	SurfaceM2   float64 `json:"surface_m2"`

	// Centroid is nil when none could be computed; the links are empty then
	Centroid  *spatial.Point `json:"centroid,omitempty"`
	Projected bool           `json:"projected"`
	H3        string         `json:"h3,omitempty"`

	URLGeoportail    string `json:"url_geoportail"`
	URLGoogleMaps    string `json:"url_google_maps"`
	URLStreetView    string `json:"url_street_view"`
	URLAdresseApprox string `json:"url_adresse_approx"`
}

// BuildRows assembles the rows of the parcels with their centroids, which
// must be in the same order. h3Resolution 0 disables the H3 column.
func BuildRows(parcels []*Parcel, centroids []Centroid, labels *CommuneLabels, h3Resolution int) ([]Row, error) {
	if len(parcels) != len(centroids) {
		return nil, fmt.Errorf("building rows: %d parcels but %d centroids", len(parcels), len(centroids))
	}

	rows := make([]Row, 0, len(parcels))

	for i, p := range parcels {
		row := Row{
			NomParcelle: NomParcelle(p.ID),
			CodeInsee:   p.Commune,
			NomCommune:  p.Commune,
			SurfaceM2:   p.Contenance,
		}

		if labels != nil {
			row.NomCommune = labels.Name(p.Commune)
		}

		c := centroids[i]
		if c.IsValid() {
			pt := c.Point
			row.Centroid = &pt
			row.Projected = c.Projected
			row.URLGeoportail = GeoportailURL(pt.Lat, pt.Lng)
			row.URLGoogleMaps = GoogleMapsURL(pt.Lat, pt.Lng)
			row.URLStreetView = StreetViewURL(pt.Lat, pt.Lng)
			row.URLAdresseApprox = AddressURL(pt.Lat, pt.Lng)

			if h3Resolution > 0 {
				cell, err := h3.LatLngToCell(h3.NewLatLng(pt.Lat, pt.Lng), h3Resolution)
				if err != nil {
					return nil, fmt.Errorf("converting %s to h3 cell at res %d: %w", p.ID, h3Resolution, err)
				}

				row.H3 = cell.String()
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

var csvHeader = []string{
	"nom_parcelle",
	"code_insee",
	"nom_commune",
	"surface_m2",
	"url_geoportail",
	"url_google_maps",
	"url_street_view",
	"url_adresse_approx",
}

func formatSurface(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the rows with raw URLs.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range rows {
		err := cw.Write([]string{
			r.NomParcelle,
			r.CodeInsee,
			r.NomCommune,
			formatSurface(r.SurfaceM2),
			r.URLGeoportail,
			r.URLGoogleMaps,
			r.URLStreetView,
			r.URLAdresseApprox,
		})
		if err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.NomParcelle, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// CSVFilename names the export of a search.
func CSVFilename(codes []string, surface float64) string {
	return fmt.Sprintf("parcelles_%s_%sm2.csv", strings.Join(codes, "_"), formatSurface(surface))
}

// MapPoint is a centroid for the point map.
type MapPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapPoints returns the centroids to plot. Rows without a usable centroid are
// skipped.
func MapPoints(rows []Row) []MapPoint {
	points := make([]MapPoint, 0, len(rows))

	for _, r := range rows {
		if r.Centroid == nil || !r.Centroid.IsValid() {
			continue
		}

		points = append(points, MapPoint{Lat: r.Centroid.Lat, Lon: r.Centroid.Lng})
	}

	return points
}

// FeatureCollection returns the centroids as GeoJSON points carrying the row
// attributes.
func FeatureCollection(rows []Row) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, r := range rows {
		if r.Centroid == nil || !r.Centroid.IsValid() {
			continue
		}

		f := geojson.NewFeature(r.Centroid.Orb())
		f.Properties["nom_parcelle"] = r.NomParcelle
		f.Properties["code_insee"] = r.CodeInsee
		f.Properties["nom_commune"] = r.NomCommune
		f.Properties["surface_m2"] = r.SurfaceM2
		f.Properties["projected"] = r.Projected
		f.Properties["url_geoportail"] = r.URLGeoportail

		if r.H3 != "" {
			f.Properties["h3"] = r.H3
		}

		fc.Append(f)
	}

	return fc
}

// WriteGeoJSON writes FeatureCollection(rows).
func WriteGeoJSON(w io.Writer, rows []Row) error {
	data, err := FeatureCollection(rows).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}

	_, err = w.Write(data)

	return err
}

// pad right-pads s to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}

	return s
}

// WriteTable renders the rows as a box drawn table for terminals.
func WriteTable(w io.Writer, rows []Row) error {
	header := []string{"Parcelle", "INSEE", "Commune", "Surface", "Centre", "Géoportail"}
	cells := make([][]string, 0, len(rows))

	for _, r := range rows {
		center := "-"
		if r.Centroid != nil {
			center = fmt.Sprintf("%.6f, %.6f", r.Centroid.Lat, r.Centroid.Lng)
			if !r.Projected {
				center += " *"
			}
		}

		cells = append(cells, []string{
			r.NomParcelle,
			r.CodeInsee,
			r.NomCommune,
			formatSurface(r.SurfaceM2) + " m²",
			center,
			r.URLGeoportail,
		})
	}

	widths := make([]int, len(header))
	for _, line := range append([][]string{header}, cells...) {
		for i, c := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, n := range widths {
			parts[i] = strings.Repeat("─", n+2)
		}

		return left + strings.Join(parts, mid) + right + "\n"
	}

	line := func(values []string) string {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = " " + pad(v, widths[i]) + " "
		}

		return "│" + strings.Join(parts, "│") + "│\n"
	}

	var sb strings.Builder

	sb.WriteString(rule("╭", "┬", "╮"))
	sb.WriteString(line(header))
	sb.WriteString(rule("├", "┼", "┤"))

	for _, c := range cells {
		sb.WriteString(line(c))
	}

	sb.WriteString(rule("╰", "┴", "╯"))

	_, err := io.WriteString(w, sb.String())

	return err
}
