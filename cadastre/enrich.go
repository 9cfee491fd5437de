// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/jcodagnone/cadastre/spatial"
)

var errUnsupportedCRS = errors.New("unsupported CRS")

var nan = math.NaN()

// Centroid is the center of a parcel in WGS84.
type Centroid struct {
	spatial.Point
	// Projected is false when the centroid was computed on the raw
	// geographic coordinates because reprojection failed
	Projected bool
	// Warning explains why Projected is false
	Warning string
}

// centroid computes the parcel centroid in Lambert-93 and converts it back
// to WGS84. Computing it on longitudes/latitudes directly skews it for
// elongated parcels.
func centroid(p *Parcel, crs string) Centroid {
	var err error

	if lonLatCRS[crs] {
		var c spatial.Point

		c, err = spatial.Lambert93Centroid(p.Geometry)
		if err == nil {
			return Centroid{Point: c, Projected: true}
		}
	} else {
		err = fmt.Errorf("%w %s", errUnsupportedCRS, crs)
	}

	reprojErr := newError(ErrorTypeReprojection, err, "parcel %s: reprojection failed, using the raw centroid", p.ID)

	raw, rawErr := spatial.PlanarCentroid(p.Geometry)
	if rawErr != nil {
		return Centroid{
			Point:   spatial.Point{Lat: nan, Lng: nan},
			Warning: errors.Join(reprojErr, rawErr).Error(),
		}
	}

	return Centroid{Point: spatial.FromOrb(raw), Warning: reprojErr.Error()}
}

// Enrich computes the centroid of each parcel. It doesn't fail: parcels that
// can't be reprojected get a raw centroid and a warning.
func Enrich(parcels []*Parcel, crs string) []Centroid {
	ret := make([]Centroid, len(parcels))

	for i, p := range parcels {
		ret[i] = centroid(p, crs)
		if ret[i].Warning != "" {
			log.Print(ret[i].Warning)
		}
	}

	return ret
}
