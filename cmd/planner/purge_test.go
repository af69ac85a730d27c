package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBound(t *testing.T) {
	from, err := parseBound("2025-01-06", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), from)

	to, err := parseBound("2025-01-06", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 23, 59, 59, 999999999, time.UTC), to)

	exact, err := parseBound("2025-01-06T08:00:00+01:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC), exact)

	_, err = parseBound("06.01.2025", false)
	assert.Error(t, err)
}
