// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Query is a parcel search.
type Query struct {
	Departement string
	// Communes holds codes or "Name (code)" labels
	Communes []string
	// Surface in square meters, matched exactly
	Surface float64
}

// Result is the outcome of a search. No rows is a valid outcome.
type Result struct {
	Departement string   `json:"departement"`
	Codes       []string `json:"codes"`
	Surface     float64  `json:"surface"`
	Rows        []Row    `json:"rows"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Filename is the name of the CSV export of the result.
func (r *Result) Filename() string {
	return CSVFilename(r.Codes, r.Surface)
}

// PipelineOptions tunes the rows produced by a Pipeline.
type PipelineOptions struct {
	// H3Resolution of the cell computed for each centroid, 0 to disable
	H3Resolution int
}

// Pipeline loads, filters and enriches parcels.
type Pipeline struct {
	loader   *Loader
	resolver *Resolver
	options  PipelineOptions
}

// NewPipeline creates a pipeline. The loader and resolver carry the caches
// shared by every search of the pipeline.
func NewPipeline(loader *Loader, resolver *Resolver, options PipelineOptions) *Pipeline {
	return &Pipeline{
		loader:   loader,
		resolver: resolver,
		options:  options,
	}
}

// Communes returns the commune labels of a département.
func (p *Pipeline) Communes(ctx context.Context, departement string) (*CommuneLabels, error) {
	departement = strings.ToUpper(strings.TrimSpace(departement))
	if err := ValidateDepartement(departement); err != nil {
		return nil, err
	}

	ds, err := p.loader.Load(ctx, departement)
	if err != nil {
		return nil, err
	}

	return p.resolver.Resolve(ctx, ds), nil
}

// Search runs a query. The input is validated before any download.
func (p *Pipeline) Search(ctx context.Context, q Query) (*Result, error) {
	departement := strings.ToUpper(strings.TrimSpace(q.Departement))
	if err := ValidateDepartement(departement); err != nil {
		return nil, err
	}

	codes := SelectedCodes(q.Communes)
	if err := Validate(codes, q.Surface); err != nil {
		return nil, err
	}

	ds, err := p.loader.Load(ctx, departement)
	if err != nil {
		return nil, err
	}

	labels := p.resolver.Resolve(ctx, ds)

	parcels := Filter(ds, codes, q.Surface)
	log.Printf("Found %d parcels of %v m² in %s", len(parcels), q.Surface, strings.Join(codes, ", "))

	centroids := Enrich(parcels, ds.CRS)

	rows, err := BuildRows(parcels, centroids, labels, p.options.H3Resolution)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", departement, err)
	}

	res := &Result{
		Departement: departement,
		Codes:       codes,
		Surface:     q.Surface,
		Rows:        rows,
	}

	for _, c := range centroids {
		if c.Warning != "" {
			res.Warnings = append(res.Warnings, c.Warning)
		}
	}

	return res, nil
}

// SelectedCodes maps codes or "Name (code)" labels to codes, dropping blanks
// and duplicates.
func SelectedCodes(selection []string) []string {
	seen := make(map[string]bool, len(selection))
	codes := make([]string, 0, len(selection))

	for _, s := range selection {
		code := strings.TrimSpace(CodeFromLabel(s))
		if code == "" || seen[code] {
			continue
		}

		seen[code] = true
		codes = append(codes, code)
	}

	return codes
}
