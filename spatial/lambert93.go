// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// EPSG codes handled by this package.
const (
	EPSG4326 = 4326 // WGS84 longitude/latitude
	EPSG2154 = 2154 // RGF93 / Lambert-93
)

// Lambert-93 is a Lambert Conformal Conic projection with two standard
// parallels on the GRS80 ellipsoid. RGF93 and WGS84 are treated as the same
// datum, the difference being well under a meter.
const (
	grs80A   = 6378137.0
	grs80F   = 1 / 298.257222101
	l93Lat1  = 44.0
	l93Lat2  = 49.0
	l93Lat0  = 46.5
	l93Lon0  = 3.0
	l93X0    = 700000.0
	l93Y0    = 6600000.0
	maxIters = 15
	epsilon  = 1e-12
)

var (
	// ErrOutOfDomain is returned when a coordinate cannot be projected.
	ErrOutOfDomain = errors.New("coordinate outside projection domain")

	// ErrEmptyGeometry is returned when there is nothing to project.
	ErrEmptyGeometry = errors.New("empty geometry")
)

type lcc struct {
	e    float64
	n    float64
	af   float64 // a * F
	rho0 float64
	lon0 float64
}

var lambert93 = newLCC()

func newLCC() *lcc {
	e := math.Sqrt(grs80F * (2 - grs80F))
	phi1, phi2 := radians(l93Lat1), radians(l93Lat2)
	m1, m2 := lccM(phi1, e), lccM(phi2, e)
	t1, t2 := lccT(phi1, e), lccT(phi2, e)
	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	af := grs80A * m1 / (n * math.Pow(t1, n))

	return &lcc{
		e:    e,
		n:    n,
		af:   af,
		rho0: af * math.Pow(lccT(radians(l93Lat0), e), n),
		lon0: radians(l93Lon0),
	}
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

func lccM(phi, e float64) float64 {
	s := math.Sin(phi)

	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

func lccT(phi, e float64) float64 {
	s := math.Sin(phi)

	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
}

func (p *lcc) forward(lon, lat float64) (float64, float64, error) {
	if !(Point{Lat: lat, Lng: lon}).IsValid() || math.Abs(lat) >= 90 {
		return 0, 0, fmt.Errorf("projecting (%v, %v): %w", lon, lat, ErrOutOfDomain)
	}

	rho := p.af * math.Pow(lccT(radians(lat), p.e), p.n)
	theta := p.n * (radians(lon) - p.lon0)

	return l93X0 + rho*math.Sin(theta), l93Y0 + p.rho0 - rho*math.Cos(theta), nil
}

func (p *lcc) inverse(x, y float64) (float64, float64, error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("unprojecting (%v, %v): %w", x, y, ErrOutOfDomain)
	}

	dx := x - l93X0
	dy := p.rho0 - (y - l93Y0)
	rho := math.Hypot(dx, dy)
	theta := math.Atan2(dx, dy)
	t := math.Pow(rho/p.af, 1/p.n)

	phi := math.Pi/2 - 2*math.Atan(t)
	for range maxIters {
		s := math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-p.e*s)/(1+p.e*s), p.e/2))

		if math.Abs(next-phi) < epsilon {
			phi = next

			break
		}

		phi = next
	}

	return degrees(theta/p.n + p.lon0), degrees(phi), nil
}

// ToLambert93 projects a WGS84 point to Lambert-93 (x, y in meters).
func ToLambert93(p Point) (orb.Point, error) {
	x, y, err := lambert93.forward(p.Lng, p.Lat)
	if err != nil {
		return orb.Point{}, err
	}

	return orb.Point{x, y}, nil
}

// FromLambert93 converts a Lambert-93 point back to WGS84.
func FromLambert93(p orb.Point) (Point, error) {
	lon, lat, err := lambert93.inverse(p.X(), p.Y())
	if err != nil {
		return Point{}, err
	}

	return Point{Lat: lat, Lng: lon}, nil
}

// ProjectLambert93 returns a projected copy of a lon/lat geometry. The
// input is left untouched.
func ProjectLambert93(g orb.Geometry) (orb.Geometry, error) {
	if g == nil || isEmpty(g) {
		return nil, ErrEmptyGeometry
	}

	var projErr error

	projected := project.Geometry(orb.Clone(g), func(p orb.Point) orb.Point {
		if projErr != nil {
			return p
		}

		q, err := ToLambert93(FromOrb(p))
		if err != nil {
			projErr = err
		}

		return q
	})
	if projErr != nil {
		return nil, projErr
	}

	return projected, nil
}

// PlanarCentroid returns the area weighted centroid of a polygonal geometry
// in its own coordinate system.
func PlanarCentroid(g orb.Geometry) (orb.Point, error) {
	if g == nil || isEmpty(g) {
		return orb.Point{}, ErrEmptyGeometry
	}

	c, _ := planar.CentroidArea(g)
	if math.IsNaN(c.X()) || math.IsNaN(c.Y()) {
		return orb.Point{}, fmt.Errorf("centroid of %s: %w", g.GeoJSONType(), ErrOutOfDomain)
	}

	return c, nil
}

// Lambert93Centroid computes the centroid of a lon/lat geometry in
// Lambert-93 and converts it back to WGS84.
func Lambert93Centroid(g orb.Geometry) (Point, error) {
	projected, err := ProjectLambert93(g)
	if err != nil {
		return Point{}, err
	}

	if planar.Area(projected) == 0 {
		return Point{}, fmt.Errorf("projected %s has no area: %w", g.GeoJSONType(), ErrOutOfDomain)
	}

	c, err := PlanarCentroid(projected)
	if err != nil {
		return Point{}, err
	}

	return FromLambert93(c)
}

func isEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return len(v) == 0 || len(v[0]) == 0
	case orb.MultiPolygon:
		for _, p := range v {
			if len(p) > 0 && len(p[0]) > 0 {
				return false
			}
		}

		return true
	case orb.Collection:
		for _, c := range v {
			if !isEmpty(c) {
				return false
			}
		}

		return true
	default:
		return false
	}
}
