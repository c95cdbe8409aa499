package impact

import "leagueback/internal/riot"

// checkpoints are the minutes at which cumulative scores are sampled.
var checkpoints = map[int]bool{1: true, 5: true, 10: true, 14: true, 20: true, 25: true, 30: true}

// lastCheckpoint is the largest checkpoint minute.
const lastCheckpoint = 30

// IsCheckpoint reports whether minute is a sampled checkpoint.
func IsCheckpoint(minute int) bool {
	return checkpoints[minute]
}

// DurationMinutes converts a game duration in seconds to whole minutes.
func DurationMinutes(seconds int) int {
	return seconds / 60
}

// ChartData scores puuid across the match and returns the sampled chart:
// one point per reached checkpoint, a final point, and a trailing summary
// point at SummaryMinute holding the mean of all the preceding points.
//
// The final point sits at LateGameMinute for games longer than the last
// checkpoint and at the game's length in minutes otherwise. When no minute
// can be scored (no duration or no frames past the first) only a zero
// summary point is returned.
func ChartData(match *riot.MatchResponse, timeline *riot.TimelineResponse, puuid string) ([]ChartPoint, error) {
	player := match.Participant(puuid)
	if player == nil {
		return nil, ErrParticipantNotFound
	}

	durationMinutes := DurationMinutes(match.Info.GameDuration)
	frameCount := 0
	if timeline != nil {
		frameCount = len(timeline.Info.Frames)
	}

	acc := NewAccumulator(timeline, match.Info.Participants, *player)
	points := make([]ChartPoint, 0, len(checkpoints)+2)

	processed := 0
	for minute := 1; minute <= durationMinutes && minute < frameCount; minute++ {
		acc.Advance(minute)
		processed++
		if IsCheckpoint(minute) {
			points = append(points, acc.Point(minute))
		}
	}

	if processed > 0 {
		finalMinute := durationMinutes
		if durationMinutes > lastCheckpoint {
			finalMinute = LateGameMinute
		}
		points = append(points, acc.Point(finalMinute))
	}

	return append(points, summarize(points)), nil
}

// summarize averages the impacts of points into a SummaryMinute point.
func summarize(points []ChartPoint) ChartPoint {
	summary := ChartPoint{Minute: SummaryMinute}
	if len(points) == 0 {
		return summary
	}
	var your, team float64
	for _, p := range points {
		your += p.YourImpact
		team += p.TeamImpact
	}
	n := float64(len(points))
	summary.YourImpact = your / n
	summary.TeamImpact = team / n
	return summary
}
