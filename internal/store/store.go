// Package store persists Riot API payloads and computed impact categories.
// Accounts, match details and timelines act as a read-through cache in front
// of the Riot API; impact_categories is the per-player record of analyzed
// matches.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"leagueback/internal/impact"
	"leagueback/internal/riot"
)

// ErrNotFound is returned when a cached row does not exist.
var ErrNotFound = errors.New("not found")

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverLibSQL   = "libsql"
)

// Store is implemented by Postgres and SQL.
type Store interface {
	GetAccount(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error)
	UpsertAccount(ctx context.Context, account *riot.AccountResponse) error

	GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error)
	PutMatch(ctx context.Context, matchID string, match *riot.MatchResponse) error
	GetMatches(ctx context.Context, matchIDs []string) (map[string]*riot.MatchResponse, error)

	GetTimeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error)
	PutTimeline(ctx context.Context, matchID string, timeline *riot.TimelineResponse) error
	GetTimelines(ctx context.Context, matchIDs []string) (map[string]*riot.TimelineResponse, error)

	UpsertCategory(ctx context.Context, matchID, puuid string, category impact.Category) error
	// StoredMatchIDs returns every analyzed match id for puuid, newest first.
	StoredMatchIDs(ctx context.Context, puuid string) ([]string, error)
	// PaginatedMatchIDs returns one newest-first page and the total count.
	PaginatedMatchIDs(ctx context.Context, puuid string, limit, offset int) ([]string, int, error)
	Categories(ctx context.Context, puuid string) ([]impact.Category, error)
	RecentCategories(ctx context.Context, puuid string, limit int) ([]impact.Category, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the database selected by driver and creates the schema.
func Open(ctx context.Context, driver, dsn, authToken string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverPostgres, "":
		s, err = NewPostgres(ctx, dsn)
	case DriverSQLite, DriverLibSQL:
		s, err = NewSQL(ctx, driver, dsn, authToken)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func decodeMatch(data []byte) (*riot.MatchResponse, error) {
	var m riot.MatchResponse
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode match: %w", err)
	}
	return &m, nil
}

func decodeTimeline(data []byte) (*riot.TimelineResponse, error) {
	var t riot.TimelineResponse
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode timeline: %w", err)
	}
	return &t, nil
}
