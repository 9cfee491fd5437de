// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jcodagnone/cadastre/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// CommuneName is the resolution of one commune code.
type CommuneName struct {
	Code     string
	Name     string
	Label    string
	Resolved bool // false when Name fell back to the code
}

// CommuneLabels maps the communes of a dataset to display labels and back.
type CommuneLabels struct {
	labels  []string
	byCode  map[string]CommuneName
	byLabel map[string]string
}

// NewCommuneLabels builds the label map. Codes keep the order in which they
// are given until sorted by display name.
func NewCommuneLabels(names []CommuneName) *CommuneLabels {
	l := &CommuneLabels{
		labels:  make([]string, 0, len(names)),
		byCode:  make(map[string]CommuneName, len(names)),
		byLabel: make(map[string]string, len(names)),
	}

	for _, n := range names {
		if _, dup := l.byCode[n.Code]; dup {
			continue
		}

		l.byCode[n.Code] = n
		l.byLabel[n.Label] = n.Code
		l.labels = append(l.labels, n.Label)
	}

	SortLabels(l.labels)

	return l
}

// FormatLabel returns "{name} ({code})".
func FormatLabel(name, code string) string {
	return fmt.Sprintf("%s (%s)", name, code)
}

// displayName is the part of a label before the trailing " (code)".
func displayName(label string) string {
	name, _, _ := strings.Cut(label, " (")

	return name
}

// SortLabels sorts labels in place, case-insensitively by display name. Ties
// keep their relative order.
func SortLabels(labels []string) {
	slices.SortStableFunc(labels, func(a, b string) int {
		return strings.Compare(textutils.FoldCase(displayName(a)), textutils.FoldCase(displayName(b)))
	})
}

// CodeFromLabel extracts the code of a "Name (code)" label. Anything else is
// returned as is, which makes bare codes valid labels.
func CodeFromLabel(label string) string {
	label = strings.TrimSpace(label)
	if !strings.Contains(label, "(") || !strings.HasSuffix(label, ")") {
		return label
	}

	i := strings.LastIndex(label, "(")

	return strings.TrimRight(label[i+1:], ")")
}

// Labels returns the sorted display labels.
func (l *CommuneLabels) Labels() []string {
	return slices.Clone(l.labels)
}

// Len returns the number of communes.
func (l *CommuneLabels) Len() int {
	return len(l.labels)
}

// Code returns the commune code of a label, or of a bare code.
func (l *CommuneLabels) Code(label string) (string, bool) {
	if code, ok := l.byLabel[label]; ok {
		return code, true
	}

	code := CodeFromLabel(label)
	_, ok := l.byCode[code]

	return code, ok
}

// Name returns the commune name, the code itself when unknown or unresolved.
func (l *CommuneLabels) Name(code string) string {
	if n, ok := l.byCode[code]; ok {
		return n.Name
	}

	return code
}

// Lookup returns the resolution of a code.
func (l *CommuneLabels) Lookup(code string) (CommuneName, bool) {
	n, ok := l.byCode[code]

	return n, ok
}

// Match returns the labels containing term, ignoring case and accents. An
// empty term matches everything.
func (l *CommuneLabels) Match(term string) []string {
	term = textutils.LowerASCIIFolding(term)
	if term == "" {
		return l.Labels()
	}

	var ret []string

	for _, label := range l.labels {
		if strings.Contains(textutils.LowerASCIIFolding(label), term) {
			ret = append(ret, label)
		}
	}

	return ret
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Delay between two lookups
	Delay time.Duration
	// Progress shows a progress bar when stderr is a terminal
	Progress bool
}

// Resolver builds the CommuneLabels of datasets. Results are memoized by
// dataset identity.
type Resolver struct {
	namer   CommuneNamer
	options ResolverOptions
	cache   *Cache[*Dataset, *CommuneLabels]
}

// NewResolver creates a resolver. A nil cache gets a private one.
func NewResolver(namer CommuneNamer, options ResolverOptions, cache *Cache[*Dataset, *CommuneLabels]) *Resolver {
	if cache == nil {
		cache = NewCache[*Dataset, *CommuneLabels](PointerKey[Dataset])
	}

	return &Resolver{
		namer:   namer,
		options: options,
		cache:   cache,
	}
}

// lookupResult carries either a resolved name or the fallback to the code.
type lookupResult struct {
	name     string
	fallback bool
	err      error
}

func (r lookupResult) commune(code string) CommuneName {
	if r.fallback {
		return CommuneName{Code: code, Name: code, Label: code}
	}

	return CommuneName{Code: code, Name: r.name, Label: FormatLabel(r.name, code), Resolved: true}
}

func (r *Resolver) lookup(ctx context.Context, code string) lookupResult {
	name, err := r.namer.LookupName(ctx, code)
	if err != nil {
		return lookupResult{fallback: true, err: err}
	}

	return lookupResult{name: name}
}

// Resolve returns the labels of every commune of the dataset. It never fails:
// communes whose name can't be found are labelled with their code. Labels
// resolved under a canceled context are returned but not memoized.
func (r *Resolver) Resolve(ctx context.Context, ds *Dataset) *CommuneLabels {
	var partial *CommuneLabels

	labels, err := r.cache.GetOrCompute(ds, func() (*CommuneLabels, error) {
		l := r.resolve(ctx, ds)
		if err := ctx.Err(); err != nil {
			partial = l

			return nil, err
		}

		return l, nil
	})
	if err != nil {
		if partial != nil {
			return partial
		}

		// joined an in-flight resolution that was canceled
		return codeLabels(ds)
	}

	return labels
}

// codeLabels labels every commune of the dataset with its code.
func codeLabels(ds *Dataset) *CommuneLabels {
	codes := ds.Communes()
	names := make([]CommuneName, 0, len(codes))

	for _, code := range codes {
		names = append(names, lookupResult{fallback: true}.commune(code))
	}

	return NewCommuneLabels(names)
}

func (r *Resolver) resolve(ctx context.Context, ds *Dataset) *CommuneLabels {
	codes := ds.Communes()
	n := len(codes)

	limit := rate.Inf
	if r.options.Delay > 0 {
		limit = rate.Every(r.options.Delay)
	}

	limiter := rate.NewLimiter(limit, 1)

	var bar *progressbar.ProgressBar
	if r.options.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving communes of "+ds.Region),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	names := make([]CommuneName, 0, n)

	var failed int

	for i, code := range codes {
		var res lookupResult
		if err := limiter.Wait(ctx); err != nil {
			res = lookupResult{fallback: true, err: err}
		} else {
			res = r.lookup(ctx, code)
		}

		if res.fallback {
			failed++

			log.Printf("[%d/%d] Commune %s: name lookup failed, using the code - %v", i+1, n, code, res.err)
		}

		names = append(names, res.commune(code))

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	log.Printf("Resolved %d communes of département %s, %d without name", n, ds.Region, failed)

	return NewCommuneLabels(names)
}
