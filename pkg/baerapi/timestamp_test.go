package baerapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		`"2024-05-01T10:00:00Z"`:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		`"2024-05-01T10:00:00.5+02:00"`: time.Date(2024, 5, 1, 8, 0, 0, 5e8, time.UTC),
		`"2024-05-01T10:00:00"`:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		`"2024-05-01T10:00:00.123456"`:  time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC),
		`"2024-05-01 10:00:00"`:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(raw), &ts))
			require.True(t, want.Equal(ts.Time), "got %s", ts.Time)
		})
	}

	t.Run("null", func(t *testing.T) {
		t.Parallel()

		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte("null"), &ts))
		require.True(t, ts.IsZero())
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		var ts Timestamp
		require.ErrorIs(t, json.Unmarshal([]byte(`"yesterday"`), &ts), ErrBadTimestamp)
	})
}
