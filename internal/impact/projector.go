package impact

import "leagueback/internal/riot"

// Side tags a participant relative to the reference player's team.
type Side int

const (
	Ally Side = iota + 1
	Enemy
)

func (s Side) String() string {
	switch s {
	case Ally:
		return "ally"
	case Enemy:
		return "enemy"
	}
	return "unknown"
}

// Tally holds cumulative champion-kill counts.
type Tally struct {
	Kills   int
	Deaths  int
	Assists int
}

// Sub returns the difference t - o.
func (t Tally) Sub(o Tally) Tally {
	return Tally{
		Kills:   t.Kills - o.Kills,
		Deaths:  t.Deaths - o.Deaths,
		Assists: t.Assists - o.Assists,
	}
}

// ParticipantState is one participant's tally at a minute.
type ParticipantState struct {
	ParticipantID int
	Side          Side
	Tally
}

// MinuteState is every roster participant's cumulative tally up to a minute.
type MinuteState struct {
	Minute       int
	Participants map[int]*ParticipantState
}

// Player returns the tally of a participant, zero when absent.
func (s MinuteState) Player(participantID int) Tally {
	if p, ok := s.Participants[participantID]; ok {
		return p.Tally
	}
	return Tally{}
}

// SideKills sums the kills of every participant on side.
func (s MinuteState) SideKills(side Side) int {
	total := 0
	for _, p := range s.Participants {
		if p.Side == side {
			total += p.Kills
		}
	}
	return total
}

// ProjectMinute replays the champion kills of frames 1..minute (capped at
// the last frame) and returns each roster participant's cumulative tally.
// Participants on teamID are tagged Ally, all others Enemy. Event ids that
// are not in the roster are ignored. Minute 0 yields an all-zero state.
func ProjectMinute(timeline *riot.TimelineResponse, minute int, roster []riot.MatchParticipant, teamID int) MinuteState {
	state := MinuteState{
		Minute:       minute,
		Participants: make(map[int]*ParticipantState, len(roster)),
	}
	for _, p := range roster {
		side := Enemy
		if p.TeamID == teamID {
			side = Ally
		}
		state.Participants[p.ParticipantID] = &ParticipantState{ParticipantID: p.ParticipantID, Side: side}
	}

	if timeline == nil {
		return state
	}

	frames := timeline.Info.Frames
	for i := 1; i <= minute && i < len(frames); i++ {
		for _, event := range frames[i].Events {
			if event.Type != riot.EventChampionKill {
				continue
			}
			if victim, ok := state.Participants[event.VictimID]; ok {
				victim.Deaths++
			}
			if killer, ok := state.Participants[event.KillerID]; ok {
				killer.Kills++
			}
			for _, id := range event.AssistingParticipantIDs {
				if assister, ok := state.Participants[id]; ok {
					assister.Assists++
				}
			}
		}
	}

	return state
}
