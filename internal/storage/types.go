package storage

import (
	"time"

	"leagueback/internal/impact"
)

// ImpactRecord is one analyzed match of one player, one JSONL line.
type ImpactRecord struct {
	MatchID    string               `json:"matchId"`
	PUUID      string               `json:"puuid"`
	Category   impact.Category      `json:"category"`
	Summary    *impact.MatchSummary `json:"summary"`
	AnalyzedAt time.Time            `json:"analyzedAt"`
}
