package riot

// Event types consumed from match timelines.
const (
	EventChampionKill = "CHAMPION_KILL"
)

// AccountResponse represents the response from /riot/account/v1/accounts/by-riot-id
type AccountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// MatchResponse represents the response from /lol/match/v5/matches/{matchId}
type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"`
	GameDuration int                `json:"gameDuration"` // seconds
	GameVersion  string             `json:"gameVersion"`
	QueueID      int                `json:"queueId"`
	Participants []MatchParticipant `json:"participants"`
	Teams        []MatchTeam        `json:"teams"`
}

type MatchParticipant struct {
	ParticipantID               int    `json:"participantId"`
	PUUID                       string `json:"puuid"`
	SummonerName                string `json:"summonerName"`
	RiotIdGameName              string `json:"riotIdGameName"`
	RiotIdTagline               string `json:"riotIdTagline"`
	ChampionName                string `json:"championName"`
	TeamID                      int    `json:"teamId"`
	TeamPosition                string `json:"teamPosition"` // TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	VisionScore                 int    `json:"visionScore"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	Win                         bool   `json:"win"`
}

type MatchTeam struct {
	TeamID int  `json:"teamId"`
	Win    bool `json:"win"`
}

// Participant returns the participant holding puuid, or nil.
func (m *MatchResponse) Participant(puuid string) *MatchParticipant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}

// Team returns the team with the given id, or nil.
func (m *MatchResponse) Team(teamID int) *MatchTeam {
	for i := range m.Info.Teams {
		if m.Info.Teams[i].TeamID == teamID {
			return &m.Info.Teams[i]
		}
	}
	return nil
}

// TimelineResponse represents the response from /lol/match/v5/matches/{matchId}/timeline
type TimelineResponse struct {
	Metadata TimelineMetadata `json:"metadata"`
	Info     TimelineInfo     `json:"info"`
}

type TimelineMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type TimelineInfo struct {
	FrameInterval int             `json:"frameInterval"`
	Frames        []TimelineFrame `json:"frames"`
}

// TimelineFrame is one snapshot, roughly one per game minute. Frame i
// approximates minute i.
type TimelineFrame struct {
	Timestamp         int                         `json:"timestamp"`
	ParticipantFrames map[string]ParticipantFrame `json:"participantFrames"`
	Events            []TimelineEvent             `json:"events"`
}

type ParticipantFrame struct {
	ParticipantID       int         `json:"participantId"`
	MinionsKilled       int         `json:"minionsKilled"`
	JungleMinionsKilled int         `json:"jungleMinionsKilled"`
	Level               int         `json:"level"`
	TotalGold           int         `json:"totalGold"`
	DamageStats         DamageStats `json:"damageStats"`
}

type DamageStats struct {
	TotalDamageDoneToChampions int `json:"totalDamageDoneToChampions"`
}

type TimelineEvent struct {
	Type                    string `json:"type"`
	Timestamp               int    `json:"timestamp"`
	KillerID                int    `json:"killerId,omitempty"`
	VictimID                int    `json:"victimId,omitempty"`
	AssistingParticipantIDs []int  `json:"assistingParticipantIds,omitempty"`
}

// LastFrame returns the final frame of the timeline, or nil when empty.
func (t *TimelineResponse) LastFrame() *TimelineFrame {
	if len(t.Info.Frames) == 0 {
		return nil
	}
	return &t.Info.Frames[len(t.Info.Frames)-1]
}
