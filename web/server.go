// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package web exposes the parcel search over HTTP.
package web

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/cadastre/cadastre"
)

// Server serves the parcel search of a pipeline as JSON, CSV and GeoJSON.
type Server struct {
	pipeline *cadastre.Pipeline
	metrics  *metrics
}

// NewServer creates a server for the pipeline.
func NewServer(pipeline *cadastre.Pipeline) *Server {
	return &Server{
		pipeline: pipeline,
		metrics:  newMetrics(),
	}
}

// Router returns the engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(s.metrics.middleware())

	r.GET("/metrics", s.metrics.handler())
	r.GET("/api/departements/:dept/communes", s.listCommunes)
	r.GET("/api/search", s.search)
	r.GET("/api/search.csv", s.searchCSV)
	r.GET("/api/search.geojson", s.searchGeoJSON)

	return r
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	log.Printf("Listening on http://%s", addr)

	return s.Router().Run(addr)
}

// statusCode maps pipeline errors to HTTP statuses.
func statusCode(err error) int {
	switch {
	case cadastre.IsValidationError(err):
		return http.StatusBadRequest
	case cadastre.IsFetchError(err), cadastre.IsDecodeError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abort(ctx *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var e *cadastre.Error
	if errors.As(err, &e) && e.Field != "" {
		body["field"] = e.Field
		body["error"] = e.Message
	}

	ctx.AbortWithStatusJSON(statusCode(err), body)
}

func (s *Server) listCommunes(ctx *gin.Context) {
	dept := ctx.Param("dept")

	labels, err := s.pipeline.Communes(ctx.Request.Context(), dept)
	if err != nil {
		abort(ctx, err)

		return
	}

	matches := labels.Match(ctx.Query("match"))
	if matches == nil {
		matches = []string{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"departement": strings.ToUpper(dept),
		"total":       labels.Len(),
		"communes":    matches,
	})
}

// parseQuery reads dept, commune (repeated or comma separated) and surface.
// An unparsable surface is reported by the pipeline validation.
func parseQuery(ctx *gin.Context) cadastre.Query {
	var communes []string

	for _, v := range ctx.QueryArray("commune") {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				communes = append(communes, c)
			}
		}
	}

	surface, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(ctx.Query("surface")), ",", ".", 1), 64)
	if err != nil {
		surface = math.NaN()
	}

	return cadastre.Query{
		Departement: ctx.Query("dept"),
		Communes:    communes,
		Surface:     surface,
	}
}

func (s *Server) run(ctx *gin.Context) (*cadastre.Result, bool) {
	res, err := s.pipeline.Search(ctx.Request.Context(), parseQuery(ctx))
	if err != nil {
		abort(ctx, err)

		return nil, false
	}

	s.metrics.rows.Observe(float64(len(res.Rows)))

	return res, true
}

type searchResponse struct {
	*cadastre.Result
	Count     int                 `json:"count"`
	MapPoints []cadastre.MapPoint `json:"map_points"`
	CSV       string              `json:"csv"`
}

func (s *Server) search(ctx *gin.Context) {
	res, ok := s.run(ctx)
	if !ok {
		return
	}

	if res.Rows == nil {
		res.Rows = []cadastre.Row{}
	}

	ctx.JSON(http.StatusOK, searchResponse{
		Result:    res,
		Count:     len(res.Rows),
		MapPoints: cadastre.MapPoints(res.Rows),
		CSV:       res.Filename(),
	})
}

func (s *Server) searchCSV(ctx *gin.Context) {
	res, ok := s.run(ctx)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := cadastre.WriteCSV(&buf, res.Rows); err != nil {
		abort(ctx, err)

		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename()))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) searchGeoJSON(ctx *gin.Context) {
	res, ok := s.run(ctx)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := cadastre.WriteGeoJSON(&buf, res.Rows); err != nil {
		abort(ctx, err)

		return
	}

	ctx.Data(http.StatusOK, "application/geo+json", buf.Bytes())
}
