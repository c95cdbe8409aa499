// Package impact scores a single player's kill/death/assist contribution
// minute by minute against their team and classifies the match outcome.
//
// Everything in this package is a pure function of its inputs: it performs
// no I/O and keeps no package-level state, so results can be cached or
// recomputed freely by callers.
package impact

import "errors"

// ErrParticipantNotFound is returned when the reference player key does not
// match any participant in the match roster.
var ErrParticipantNotFound = errors.New("reference participant not found in match")

// Outcome is the reference player's match result.
type Outcome string

const (
	Victory Outcome = "Victory"
	Defeat  Outcome = "Defeat"
)

// Category classifies whether a match result matched the player's relative
// performance.
type Category string

const (
	ImpactWins       Category = "impactWins"
	ImpactLosses     Category = "impactLosses"
	GuaranteedWins   Category = "guaranteedWins"
	GuaranteedLosses Category = "guaranteedLosses"
)

// Categories lists every category in display order.
var Categories = []Category{ImpactWins, ImpactLosses, GuaranteedWins, GuaranteedLosses}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case ImpactWins, ImpactLosses, GuaranteedWins, GuaranteedLosses:
		return true
	}
	return false
}

// Special chart minutes.
const (
	// SummaryMinute marks the synthetic point carrying the averages of all
	// sampled points.
	SummaryMinute = -1
	// LateGameMinute is the minute reported for the final point of games
	// longer than the last checkpoint.
	LateGameMinute = 35
)

// ChartPoint is the cumulative score of the player and their team at a minute.
type ChartPoint struct {
	Minute     int     `json:"minute"`
	YourImpact float64 `json:"yourImpact"`
	TeamImpact float64 `json:"teamImpact"`
}

// MatchSummary is the per-match result shown to a player.
type MatchSummary struct {
	ID           string       `json:"id"`
	SummonerName string       `json:"summonerName"`
	Champion     string       `json:"champion"`
	KDA          string       `json:"kda"`
	CS           int          `json:"cs"`
	VisionScore  int          `json:"visionScore"`
	GameResult   Outcome      `json:"gameResult"`
	GameTime     string       `json:"gameTime"`
	Data         []ChartPoint `json:"data"`
	YourImpact   float64      `json:"yourImpact"`
	TeamImpact   float64      `json:"teamImpact"`
}

// Category classifies the summary using its outcome and averaged impacts.
func (s *MatchSummary) Category() Category {
	return Categorize(s.GameResult, s.YourImpact, s.TeamImpact)
}
