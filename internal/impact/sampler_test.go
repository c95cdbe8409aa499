package impact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minutes(points []ChartPoint) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Minute
	}
	return out
}

func TestChartData_Skirmish(t *testing.T) {
	points, err := ChartData(newMatch(725, true), skirmishTimeline(), myPUUID)
	require.NoError(t, err)

	want := []ChartPoint{
		{Minute: 1, YourImpact: 25, TeamImpact: 6.25},
		{Minute: 5, YourImpact: 15, TeamImpact: 6.25},
		{Minute: 10, YourImpact: 15, TeamImpact: 6.25},
		{Minute: 12, YourImpact: 15, TeamImpact: 6.25},
		{Minute: SummaryMinute, YourImpact: 17.5, TeamImpact: 6.25},
	}
	assert.Equal(t, want, points)
}

func TestChartData_SummaryIsMeanOfPoints(t *testing.T) {
	timeline := newTimeline(41)
	addKill(timeline, 1, 1, 6)
	addKill(timeline, 4, 6, 1, 7)
	addKill(timeline, 9, 2, 7, 1, 3)
	addKill(timeline, 13, 1, 8, 2)
	addKill(timeline, 18, 9, 3)
	addKill(timeline, 24, 10, 1, 9)
	addKill(timeline, 29, 1, 10)
	addKill(timeline, 37, 4, 6, 1)

	points, err := ChartData(newMatch(40*60+12, true), timeline, myPUUID)
	require.NoError(t, err)
	require.NotEmpty(t, points)

	summary := points[len(points)-1]
	require.Equal(t, SummaryMinute, summary.Minute)

	var your, team float64
	for _, p := range points[:len(points)-1] {
		assert.NotEqual(t, SummaryMinute, p.Minute)
		your += p.YourImpact
		team += p.TeamImpact
	}
	n := float64(len(points) - 1)
	assert.InDelta(t, your/n, summary.YourImpact, 1e-9)
	assert.InDelta(t, team/n, summary.TeamImpact, 1e-9)
}

func TestChartData_NoKillsIsZeroEverywhere(t *testing.T) {
	points, err := ChartData(newMatch(28*60, false), newTimeline(29), myPUUID)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5, 10, 14, 20, 25, 28, SummaryMinute}, minutes(points))
	for _, p := range points {
		assert.Zero(t, p.YourImpact, "minute %d", p.Minute)
		assert.Zero(t, p.TeamImpact, "minute %d", p.Minute)
	}
}

func TestChartData_LongGameFinalPointAt35(t *testing.T) {
	points, err := ChartData(newMatch(65*60, true), newTimeline(66), myPUUID)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5, 10, 14, 20, 25, 30, LateGameMinute, SummaryMinute}, minutes(points))
}

func TestChartData_ExactlyThirtyMinutes(t *testing.T) {
	timeline := newTimeline(31)
	addKill(timeline, 30, 1, 6)

	points, err := ChartData(newMatch(30*60+45, true), timeline, myPUUID)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5, 10, 14, 20, 25, 30, 30, SummaryMinute}, minutes(points))
	assert.Equal(t, points[6], ChartPoint{Minute: 30, YourImpact: 5, TeamImpact: 1.25})
	assert.Equal(t, points[6], points[7])
}

func TestChartData_LateKillsOnlyInFinalPoint(t *testing.T) {
	timeline := newTimeline(45)
	addKill(timeline, 40, 1, 6)

	points, err := ChartData(newMatch(44*60, true), timeline, myPUUID)
	require.NoError(t, err)

	checkpoint30 := points[6]
	final := points[7]
	assert.Equal(t, 30, checkpoint30.Minute)
	assert.Zero(t, checkpoint30.YourImpact)
	assert.Equal(t, ChartPoint{Minute: LateGameMinute, YourImpact: 2.5, TeamImpact: 2.5 / 4}, final)
}

func TestChartData_StopsAtLastFrame(t *testing.T) {
	// Duration says 20 minutes but only frames 0..5 exist.
	timeline := newTimeline(6)
	addKill(timeline, 5, 1, 6)

	points, err := ChartData(newMatch(20*60, true), timeline, myPUUID)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5, 20, SummaryMinute}, minutes(points))
	assert.Equal(t, 20.0, points[2].YourImpact)
}

func TestChartData_EmptyTimeline(t *testing.T) {
	points, err := ChartData(newMatch(25*60, true), newTimeline(0), myPUUID)
	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{{Minute: SummaryMinute}}, points)
}

func TestChartData_ShortGame(t *testing.T) {
	// A remake ends before the first full minute.
	points, err := ChartData(newMatch(45, false), newTimeline(2), myPUUID)
	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{{Minute: SummaryMinute}}, points)
}

func TestChartData_UnknownPlayer(t *testing.T) {
	points, err := ChartData(newMatch(725, true), skirmishTimeline(), "someone-else")
	assert.True(t, errors.Is(err, ErrParticipantNotFound))
	assert.Nil(t, points)
}
