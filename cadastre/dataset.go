// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package cadastre finds French cadastral parcels by commune and surface.
//
// The Etalab cadastre extracts are loaded per département, commune codes are
// resolved to names through geo.api.gouv.fr, and the matching parcels are
// returned with their centroid and links to map viewers.
package cadastre

import (
	"github.com/paulmach/orb"
)

// CRS84 is the CRS of GeoJSON files that don't declare one.
const CRS84 = "urn:ogc:def:crs:OGC:1.3:CRS84"

// geographic CRS names equivalent to WGS84 longitude/latitude. RGF93
// (EPSG:4171) differs from WGS84 by less than a meter.
var lonLatCRS = map[string]bool{
	CRS84:                        true,
	"EPSG:4326":                  true,
	"EPSG:4171":                  true,
	"urn:ogc:def:crs:EPSG::4326": true,
	"urn:ogc:def:crs:EPSG::4171": true,
}

// Parcel is one cadastral parcel.
type Parcel struct {
	// ID is the cadastral identifier, "<commune><prefix><section>_<numéro>"
	// e.g. "141180000A_0012"
	ID string
	// Commune is the INSEE code of the commune
	Commune string
	// Contenance is the surface in square meters
	Contenance float64
	// Properties has every attribute as published
	Properties map[string]any
	// Geometry in the dataset CRS
	Geometry orb.Geometry
}

// Dataset is the set of parcels of one département. Treat as read only.
type Dataset struct {
	Region  string
	CRS     string
	Source  string
	Parcels []*Parcel
}

// Len returns the number of parcels.
func (d *Dataset) Len() int {
	return len(d.Parcels)
}

// IsLonLat reports whether coordinates can be fed to the Lambert-93 projection.
func (d *Dataset) IsLonLat() bool {
	return lonLatCRS[d.CRS]
}

// Communes returns the distinct commune codes in order of first appearance.
func (d *Dataset) Communes() []string {
	seen := make(map[string]bool)

	var codes []string

	for _, p := range d.Parcels {
		if !seen[p.Commune] {
			seen[p.Commune] = true
			codes = append(codes, p.Commune)
		}
	}

	return codes
}
