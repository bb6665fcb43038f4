package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Sortable(t *testing.T) {
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Len(t, ids[0], 26)

	seen := make(map[string]bool, len(ids))
	for _, s := range ids {
		assert.False(t, seen[s])
		seen[s] = true
	}
}

func TestAt_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC)
	got, err := Time(At(ts))
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
