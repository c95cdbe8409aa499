package impact

import (
	"fmt"
	"strconv"

	"leagueback/internal/riot"
)

// Reconstruct builds the MatchSummary of puuid for a match. It fails only
// with ErrParticipantNotFound; a missing team counts as a defeat and a
// missing final frame yields a creep score of zero.
func Reconstruct(matchID, puuid string, match *riot.MatchResponse, timeline *riot.TimelineResponse) (*MatchSummary, error) {
	player := match.Participant(puuid)
	if player == nil {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrParticipantNotFound)
	}

	points, err := ChartData(match, timeline, puuid)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}

	// The summary point is always last.
	summary := points[len(points)-1]
	chart := make([]ChartPoint, 0, len(points)-1)
	for _, p := range points {
		if p.Minute != SummaryMinute {
			chart = append(chart, p)
		}
	}

	return &MatchSummary{
		ID:           matchID,
		SummonerName: player.SummonerName,
		Champion:     player.ChampionName,
		KDA:          fmt.Sprintf("%d/%d/%d", player.Kills, player.Deaths, player.Assists),
		CS:           CreepScore(timeline, player.ParticipantID),
		VisionScore:  player.VisionScore,
		GameResult:   MatchOutcome(match, player.TeamID),
		GameTime:     FormatGameTime(match.Info.GameDuration),
		Data:         chart,
		YourImpact:   summary.YourImpact,
		TeamImpact:   summary.TeamImpact,
	}, nil
}

// MatchOutcome reads the win flag of teamID. A team missing from the match
// is a defeat.
func MatchOutcome(match *riot.MatchResponse, teamID int) Outcome {
	if team := match.Team(teamID); team != nil && team.Win {
		return Victory
	}
	return Defeat
}

// FormatGameTime renders seconds as zero-padded MM:SS.
func FormatGameTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// CreepScore returns lane plus jungle minions killed by participantID as
// recorded in the last timeline frame, or 0 when unavailable.
func CreepScore(timeline *riot.TimelineResponse, participantID int) int {
	if timeline == nil {
		return 0
	}
	last := timeline.LastFrame()
	if last == nil {
		return 0
	}
	frame, ok := last.ParticipantFrames[strconv.Itoa(participantID)]
	if !ok {
		return 0
	}
	return frame.MinionsKilled + frame.JungleMinionsKilled
}
