// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLonLat(t *testing.T) {
	for _, line := range []string{"2.3522 48.8566", "2.3522,48.8566", "2.3522\t48.8566"} {
		p, err := parseLonLat(line)
		require.NoError(t, err, line)
		assert.InDelta(t, 2.3522, p.Lng, 0)
		assert.InDelta(t, 48.8566, p.Lat, 0)
	}

	for _, line := range []string{"2.3522", "a 48", "2 b", "1 2 3"} {
		_, err := parseLonLat(line)
		assert.Error(t, err, line)
	}
}

func TestLambert93Line(t *testing.T) {
	assert.Equal(t, "2.3522 48.8566\t652469.023 6862035.259\t2.352200000 48.856600000", lambert93Line("2.3522 48.8566"))
	assert.Equal(t, "3 46.5\t700000.000 6600000.000\t3.000000000 46.500000000", lambert93Line("3 46.5"))
	assert.Contains(t, lambert93Line("0 95"), "0 95\t")
	assert.Contains(t, lambert93Line("x"), "expected")
}
