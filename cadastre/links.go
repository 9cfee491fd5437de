// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"strconv"
	"strings"
)

// MapZoom is the zoom level of the generated map links.
const MapZoom = 19

const (
	geoportailOrthophotos = "ORTHOIMAGERY.ORTHOPHOTOS::GEOPORTAIL:OGC:WMTS(1)"
	geoportailParcels     = "CADASTRALPARCELS.PARCELLAIRE_EXPRESS::GEOPORTAIL:OGC:WMTS(1)"
)

// formatCoord writes a float with the fewest digits that round trip.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GeoportailURL opens the IGN viewer on the orthophotos with the cadastral
// parcels overlay.
func GeoportailURL(lat, lon float64) string {
	return "https://www.geoportail.gouv.fr/carte?c=" + formatCoord(lon) + "," + formatCoord(lat) +
		"&z=" + strconv.Itoa(MapZoom) +
		"&l0=" + geoportailOrthophotos +
		"&l1=" + geoportailParcels +
		"&permalink=yes"
}

// GoogleMapsURL points Google Maps at the coordinates.
func GoogleMapsURL(lat, lon float64) string {
	return "https://www.google.com/maps?q=" + formatCoord(lat) + "," + formatCoord(lon) +
		"&z=" + strconv.Itoa(MapZoom)
}

// StreetViewURL opens the Street View panorama nearest to the coordinates.
func StreetViewURL(lat, lon float64) string {
	return "https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=" + formatCoord(lat) + "," + formatCoord(lon)
}

// AddressURL searches the Base Adresse Nationale around the coordinates.
func AddressURL(lat, lon float64) string {
	return "https://adresse.data.gouv.fr/recherche/?q=" + formatCoord(lat) + "+" + formatCoord(lon)
}

// NomParcelle extracts the parcel name from a cadastral identifier: the
// second "_" separated token, or the identifier itself if there is none.
func NomParcelle(id string) string {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return id
	}

	return parts[1]
}
