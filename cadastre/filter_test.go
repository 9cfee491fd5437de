// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parcelIDs(parcels []*Parcel) []string {
	ids := make([]string, 0, len(parcels))
	for _, p := range parcels {
		ids = append(ids, p.ID)
	}

	return ids
}

func TestFilter(t *testing.T) {
	ds := fixtureDataset(t)

	tests := []struct {
		name     string
		codes    []string
		surface  float64
		expected []string
	}{
		{"one commune", []string{"14118"}, 469, []string{"141180000A_0012", "141180000D_0101"}},
		{"two communes", []string{"14118", "14036"}, 469, []string{"141180000A_0012", "140360000C_0007", "141180000D_0101"}},
		{"other surface", []string{"14118"}, 1200, []string{"141180000B_0040"}},
		{"no tolerance", []string{"14118"}, 469.5, []string{}},
		{"no match in commune", []string{"14762"}, 469, []string{}},
		{"unknown commune", []string{"99999"}, 469, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, parcelIDs(Filter(ds, tc.codes, tc.surface)))
		})
	}
}

// the result is exactly the parcels satisfying both predicates.
func TestFilterPredicate(t *testing.T) {
	ds := fixtureDataset(t)

	for _, codes := range [][]string{{"14118"}, {"14036"}, {"14118", "14762"}} {
		for _, surface := range []float64{85, 469, 1200} {
			got := map[*Parcel]bool{}
			for _, p := range Filter(ds, codes, surface) {
				got[p] = true
			}

			for _, p := range ds.Parcels {
				want := false

				for _, c := range codes {
					if p.Commune == c && p.Contenance == surface {
						want = true
					}
				}

				assert.Equal(t, want, got[p], "%s %v %v", p.ID, codes, surface)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		codes   []string
		surface float64
		field   string
	}{
		{"ok", []string{"14118"}, 469, ""},
		{"no commune", nil, 469, "communes"},
		{"zero surface", []string{"14118"}, 0, "surface"},
		{"negative surface", []string{"14118"}, -3, "surface"},
		{"nan surface", []string{"14118"}, math.NaN(), "surface"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.codes, tc.surface)
			if tc.field == "" {
				assert.NoError(t, err)

				return
			}

			var e *Error
			if assert.ErrorAs(t, err, &e) {
				assert.Equal(t, ErrorTypeValidation, e.Type)
				assert.Equal(t, tc.field, e.Field)
			}
		})
	}
}

func TestValidateDepartement(t *testing.T) {
	for _, ok := range []string{"14", "01", "2A", "2B", "971", "976"} {
		assert.NoError(t, ValidateDepartement(ok), ok)
	}

	for _, bad := range []string{"", "1", "2C", "14118", "../14", "96a"} {
		assert.True(t, IsValidationError(ValidateDepartement(bad)), bad)
	}
}
