package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDayUTC(t *testing.T) {
	require.NoError(t, Init(""))

	// 2024-03-10 22:30 UTC is already 2024-03-11 01:30 in Addis Ababa (UTC+3)
	in := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	got := StartOfDayUTC(in)

	assert.Equal(t, time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC), got)
}

func TestParseDateInBizTimezone(t *testing.T) {
	got, err := ParseDateInBizTimezone("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 21, 0, 0, 0, time.UTC), got)

	_, err = ParseDateInBizTimezone("01/01/2025")
	assert.Error(t, err)
}
