package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("07:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 7 * * *", spec)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_ScheduleDaily(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	_, err := s.ScheduleDaily("21:30", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("nope", func() {})
	require.Error(t, err)
	assert.Equal(t, 1, s.Entries())

	s.Start()
	s.Stop()
}
