package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocationOffset(t *testing.T) {
	instant := time.Date(2024, time.January, 27, 0, 0, 0, 0, time.UTC)
	_, offset := instant.In(Location).Zone()
	require.Equal(t, 5*60*60+45*60, offset)

	require.Equal(t, 5, instant.In(Location).Hour())
	require.Equal(t, 45, instant.In(Location).Minute())
}

func TestNow(t *testing.T) {
	before := time.Now()
	now := Now()
	require.Equal(t, Location, now.Location())
	require.False(t, now.Before(before.Truncate(time.Second)))
}
