// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerASCIIFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Évrecy", "evrecy"},
		{"Hérouville-Saint-Clair", "herouville-saint-clair"},
		{"Crème Brûlée", "creme brulee"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestFoldCase(t *testing.T) {
	assert.Equal(t, FoldCase("CAEN"), FoldCase("caen"))
	assert.Equal(t, FoldCase("Bayeux"), FoldCase("bAYEUX"))
	assert.NotEqual(t, FoldCase("Évrecy"), FoldCase("evrecy"))
	assert.Less(t, FoldCase("bayeux"), FoldCase("Caen"))
}
