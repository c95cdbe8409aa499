package impact

import (
	"fmt"
	"strconv"

	"leagueback/internal/riot"
)

const (
	blueTeam = 100
	redTeam  = 200
	myPUUID  = "puuid-me"
)

// newMatch builds a 5v5 match lasting durationSeconds. Participant 1
// (myPUUID) plays on the blue team with participants 2-5.
func newMatch(durationSeconds int, blueWins bool) *riot.MatchResponse {
	m := &riot.MatchResponse{}
	m.Metadata.MatchID = "NA1_1234"
	m.Info.GameDuration = durationSeconds
	for id := 1; id <= 10; id++ {
		team := blueTeam
		if id > 5 {
			team = redTeam
		}
		p := riot.MatchParticipant{
			ParticipantID: id,
			PUUID:         fmt.Sprintf("puuid-%d", id),
			SummonerName:  fmt.Sprintf("Summoner%d", id),
			ChampionName:  fmt.Sprintf("Champion%d", id),
			TeamID:        team,
		}
		if id == 1 {
			p.PUUID = myPUUID
			p.SummonerName = "Faker"
			p.ChampionName = "Ahri"
			p.Kills, p.Deaths, p.Assists = 7, 2, 11
			p.VisionScore = 31
			p.TeamPosition = "MIDDLE"
		}
		m.Info.Participants = append(m.Info.Participants, p)
	}
	m.Info.Teams = []riot.MatchTeam{
		{TeamID: blueTeam, Win: blueWins},
		{TeamID: redTeam, Win: !blueWins},
	}
	return m
}

// newTimeline builds a timeline with frameCount frames and no events.
func newTimeline(frameCount int) *riot.TimelineResponse {
	t := &riot.TimelineResponse{}
	t.Info.FrameInterval = 60000
	for i := 0; i < frameCount; i++ {
		frame := riot.TimelineFrame{
			Timestamp:         i * 60000,
			ParticipantFrames: map[string]riot.ParticipantFrame{},
		}
		for id := 1; id <= 10; id++ {
			frame.ParticipantFrames[strconv.Itoa(id)] = riot.ParticipantFrame{
				ParticipantID: id,
				MinionsKilled: i * 7,
				Level:         1 + i/2,
			}
		}
		t.Info.Frames = append(t.Info.Frames, frame)
	}
	return t
}

// addKill records a champion kill in frame.
func addKill(t *riot.TimelineResponse, frame, killer, victim int, assists ...int) {
	t.Info.Frames[frame].Events = append(t.Info.Frames[frame].Events, riot.TimelineEvent{
		Type:                    riot.EventChampionKill,
		Timestamp:               frame*60000 + 1500,
		KillerID:                killer,
		VictimID:                victim,
		AssistingParticipantIDs: assists,
	})
}

// skirmishTimeline is a 13-frame timeline with:
//
//	frame 1:  me (1) kills 6, assisted by 2
//	frame 3:  7 kills me, assisted by 8
//	frame 5:  3 kills 9, assisted by me and 2
//	frame 11: unknown killer 99 kills 10, assisted by unknown 42
func skirmishTimeline() *riot.TimelineResponse {
	t := newTimeline(13)
	addKill(t, 1, 1, 6, 2)
	addKill(t, 3, 7, 1, 8)
	addKill(t, 5, 3, 9, 1, 2)
	addKill(t, 11, 99, 10, 42)
	return t
}
