package impact

import "leagueback/internal/riot"

// teammates is the fixed divisor applied to the team score: four allies
// besides the reference player in a 5v5 match. It is not derived from the
// roster so categorizations stay comparable across matches.
const teammates = 4.0

// KillValue returns the points a kill is worth at minute. Early kills are
// worth more; the table never increases with time.
func KillValue(minute int) float64 {
	switch {
	case minute <= 1:
		return 25.0
	case minute <= 5:
		return 20.0
	case minute <= 10:
		return 17.5
	case minute <= 14:
		return 15.0
	case minute <= 20:
		return 10.0
	case minute <= 30:
		return 5.0
	}
	return 2.5
}

// Accumulator keeps the running solo and team scores of one reference
// player across consecutive minutes of a match.
type Accumulator struct {
	timeline      *riot.TimelineResponse
	roster        []riot.MatchParticipant
	teamID        int
	participantID int

	previous  MinuteState
	solo      float64
	teamTotal float64
}

// NewAccumulator starts an accumulator at minute 0 for player.
func NewAccumulator(timeline *riot.TimelineResponse, roster []riot.MatchParticipant, player riot.MatchParticipant) *Accumulator {
	return &Accumulator{
		timeline:      timeline,
		roster:        roster,
		teamID:        player.TeamID,
		participantID: player.ParticipantID,
		previous:      ProjectMinute(timeline, 0, roster, player.TeamID),
	}
}

// Advance scores minute against the state of the previously advanced
// minute. Callers advance minutes in ascending order starting at 1.
func (a *Accumulator) Advance(minute int) {
	current := ProjectMinute(a.timeline, minute, a.roster, a.teamID)

	killValue := KillValue(minute)
	deathValue := -killValue
	assistValue := killValue / 2

	delta := current.Player(a.participantID).Sub(a.previous.Player(a.participantID))
	allyKills := current.SideKills(Ally) - a.previous.SideKills(Ally)
	enemyKills := current.SideKills(Enemy) - a.previous.SideKills(Enemy)

	a.solo += float64(delta.Kills)*killValue +
		float64(delta.Deaths)*deathValue +
		float64(delta.Assists)*assistValue
	a.teamTotal += float64(allyKills-enemyKills) * killValue

	a.previous = current
}

// Solo returns the reference player's cumulative score.
func (a *Accumulator) Solo() float64 {
	return a.solo
}

// Team returns the cumulative net kill score of the player's team divided
// across the four teammates.
func (a *Accumulator) Team() float64 {
	return a.teamTotal / teammates
}

// Point snapshots the current totals as a chart point at minute.
func (a *Accumulator) Point(minute int) ChartPoint {
	return ChartPoint{Minute: minute, YourImpact: a.Solo(), TeamImpact: a.Team()}
}
