// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"math"
	"regexp"
)

// metropolitan, Corsica and overseas départements.
var departementRegex = regexp.MustCompile(`^(\d{2}|2[AB]|97\d)$`)

// ValidateDepartement checks the shape of a département code.
func ValidateDepartement(code string) error {
	if !departementRegex.MatchString(code) {
		return NewValidationError("departement", "Code département invalide : "+code)
	}

	return nil
}

// Validate checks the search criteria. Filter must not be called when it
// fails.
func Validate(codes []string, surface float64) error {
	if len(codes) == 0 {
		return NewValidationError("communes", "Sélectionne au moins une commune.")
	}

	if math.IsNaN(surface) || surface <= 0 {
		return NewValidationError("surface", "Saisis une surface positive.")
	}

	return nil
}

// Filter returns the parcels of the given communes whose contenance is
// exactly surface, in dataset order.
func Filter(ds *Dataset, codes []string, surface float64) []*Parcel {
	selected := make(map[string]bool, len(codes))
	for _, c := range codes {
		selected[c] = true
	}

	var ret []*Parcel

	for _, p := range ds.Parcels {
		if selected[p.Commune] && p.Contenance == surface {
			ret = append(ret, p)
		}
	}

	return ret
}
