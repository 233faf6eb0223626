package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestParseISODates(t *testing.T) {
	dates := ParseISODates("from 2025-12-15 to 2025-12-22 please")
	require.Len(t, dates, 2)
	assert.Equal(t, "2025-12-15", dates[0])
	assert.Equal(t, "2025-12-22", dates[1])

	assert.Empty(t, ParseISODates("no dates here"))
	assert.Empty(t, ParseISODates("2025-13-45 is not a date"))
}

func TestParseDateRange(t *testing.T) {
	dep, ret, found := ParseDateRange("Thailand Dec 1-14, 2025 for two of us", testNow)
	require.True(t, found)
	assert.Equal(t, "2025-12-01", dep)
	assert.Equal(t, "2025-12-14", ret)

	dep, ret, found = ParseDateRange("Dec 1–14, 2025", testNow)
	require.True(t, found)
	assert.Equal(t, "2025-12-01", dep)
	assert.Equal(t, "2025-12-14", ret)

	dep, ret, found = ParseDateRange("December 28 to January 4, 2025", testNow)
	require.True(t, found)
	assert.Equal(t, "2025-12-28", dep)
	assert.Equal(t, "2026-01-04", ret)

	// missing year defaults to the next occurrence
	dep, _, found = ParseDateRange("Dec 1 to 14", testNow)
	require.True(t, found)
	assert.Equal(t, "2025-12-01", dep)

	_, _, found = ParseDateRange("no range here", testNow)
	assert.False(t, found)
}

func TestParseSingleDate(t *testing.T) {
	d, found := ParseSingleDate("2025-12-15", testNow)
	require.True(t, found)
	assert.Equal(t, "2025-12-15", d)

	d, found = ParseSingleDate("December 15, 2025", testNow)
	require.True(t, found)
	assert.Equal(t, "2025-12-15", d)

	_, found = ParseSingleDate("sometime soon", testNow)
	assert.False(t, found)
}

func TestParseAges(t *testing.T) {
	ages, found := ParseAges("2 adults ages 30 and 35, 1 child age 8")
	require.True(t, found)
	assert.Equal(t, []int{30, 35, 8}, ages)

	ages, found = ParseAges("1 traveler, age 30")
	require.True(t, found)
	assert.Equal(t, []int{30}, ages)

	ages, found = ParseAges("I'm 42 years old")
	require.True(t, found)
	assert.Equal(t, []int{42}, ages)

	_, found = ParseAges("just the two of us")
	assert.False(t, found)

	// a traveler count is not an age
	_, found = ParseAges("3 travelers")
	assert.False(t, found)
}

func TestValidateAges(t *testing.T) {
	assert.NoError(t, ValidateAges([]int{30, 8}))
	assert.Error(t, ValidateAges(nil))
	assert.Error(t, ValidateAges([]int{8, 12}))
}

func TestCountAdults(t *testing.T) {
	adults, children := CountAdults([]int{30, 35, 8})
	assert.Equal(t, 2, adults)
	assert.Equal(t, 1, children)
}

func TestIsAffirmative(t *testing.T) {
	assert.True(t, IsAffirmative("Yes"))
	assert.True(t, IsAffirmative("yes, that's correct"))
	assert.True(t, IsAffirmative("sounds good"))
	assert.False(t, IsAffirmative("no"))
	assert.False(t, IsAffirmative("not quite right"))
	assert.False(t, IsAffirmative("actually change the dates"))
}

func TestIsNegative(t *testing.T) {
	assert.True(t, IsNegative("No"))
	assert.True(t, IsNegative("that's wrong"))
	assert.False(t, IsNegative("yes"))
}

func TestParseAdventure(t *testing.T) {
	v, found := ParseAdventure("no adventure sports", false)
	require.True(t, found)
	assert.False(t, *v)

	v, found = ParseAdventure("we're going scuba diving", false)
	require.True(t, found)
	assert.True(t, *v)

	v, found = ParseAdventure("No", true)
	require.True(t, found)
	assert.False(t, *v)

	v, found = ParseAdventure("yes", true)
	require.True(t, found)
	assert.True(t, *v)

	_, found = ParseAdventure("Japan", false)
	assert.False(t, found)
}

func TestParseDestination(t *testing.T) {
	dest, found := ParseDestination("Quote for Thailand Dec 1-14, 2025", false)
	require.True(t, found)
	assert.Equal(t, "Thailand", dest)

	dest, found = ParseDestination("we're traveling to New Zealand next month", false)
	require.True(t, found)
	assert.Equal(t, "New Zealand", dest)

	// awaited slot takes a short free-text answer verbatim
	dest, found = ParseDestination("Japan", true)
	require.True(t, found)
	assert.Equal(t, "Japan", dest)

	_, found = ParseDestination("I need travel insurance", false)
	assert.False(t, found)

	_, found = ParseDestination("I need travel insurance", true)
	assert.False(t, found)
}
