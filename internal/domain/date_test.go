package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-03-09", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseDate("2024-03-09T22:15:00Z", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), d)

	_, ok = ParseDate("", time.UTC)
	assert.False(t, ok)
	_, ok = ParseDate("09/03/2024", time.UTC)
	assert.False(t, ok)
}

func TestDateOrFallsBackToToday(t *testing.T) {
	assert.Equal(t, "2024-05-10", FormatDate(DateOr("", testNow)))
	assert.Equal(t, "2024-01-31", FormatDate(DateOr("2024-01-31", testNow)))
}

func TestDaysBetweenIgnoresDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	before := time.Date(2024, time.March, 9, 0, 0, 0, 0, loc)
	after := time.Date(2024, time.March, 11, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysBetween(before, after))
	assert.Equal(t, -2, DaysBetween(after, before))
}

func TestSettingsNormalize(t *testing.T) {
	nan := math.NaN()
	rh := 40.0
	s := Settings{Season: "monsoon", TempC: &nan, RH: &rh, TaskType: "weeding"}
	s.Normalize()

	assert.Equal(t, SeasonGrowing, s.Season)
	assert.Nil(t, s.TempC)
	require.NotNil(t, s.RH)
	assert.Equal(t, 40.0, *s.RH)
	assert.Equal(t, TaskFilterAll, s.TaskType)
	assert.Equal(t, 7, s.TaskWindow)
	assert.Equal(t, "cards", s.PlantsView)
}
