package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"leagueback/internal/impact"
	"leagueback/internal/riot"
)

// SQL stores payloads as JSON text in SQLite, either a local file through
// modernc.org/sqlite or a hosted Turso database through libsql.
type SQL struct {
	db *sql.DB
}

// NewSQL opens driver ("sqlite" or "libsql") at dsn.
func NewSQL(ctx context.Context, driver, dsn, authToken string) (*SQL, error) {
	connStr := dsn
	switch driver {
	case DriverSQLite:
		if connStr == "" {
			connStr = "leagueback.db"
		}
	case DriverLibSQL:
		if authToken != "" {
			connStr = fmt.Sprintf("%s?authToken=%s", dsn, authToken)
		}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return &SQL{db: db}, nil
}

// Close closes the database
func (s *SQL) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they don't exist
func (s *SQL) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			puuid TEXT PRIMARY KEY,
			game_name TEXT NOT NULL COLLATE NOCASE,
			tag_line TEXT NOT NULL COLLATE NOCASE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_riot_id ON accounts(game_name, tag_line)`,
		`CREATE TABLE IF NOT EXISTS match_details (
			match_id TEXT PRIMARY KEY,
			match_data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS match_timelines (
			match_id TEXT PRIMARY KEY,
			timeline_data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS impact_categories (
			match_id TEXT NOT NULL,
			puuid TEXT NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (match_id, puuid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_impact_categories_puuid ON impact_categories(puuid, match_id)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// GetAccount looks up a cached account. Riot IDs are case-insensitive.
func (s *SQL) GetAccount(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error) {
	var a riot.AccountResponse
	err := s.db.QueryRowContext(ctx, `
		SELECT puuid, game_name, tag_line FROM accounts
		WHERE game_name = ? AND tag_line = ?
		LIMIT 1
	`, gameName, tagLine).Scan(&a.PUUID, &a.GameName, &a.TagLine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAccount caches an account.
func (s *SQL) UpsertAccount(ctx context.Context, a *riot.AccountResponse) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (puuid, game_name, tag_line) VALUES (?, ?, ?)
		ON CONFLICT(puuid) DO UPDATE SET game_name = excluded.game_name, tag_line = excluded.tag_line
	`, a.PUUID, a.GameName, a.TagLine)
	return err
}

// GetMatch returns a cached match.
func (s *SQL) GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error) {
	data, err := s.getBlob(ctx, `SELECT match_data FROM match_details WHERE match_id = ?`, matchID)
	if err != nil {
		return nil, err
	}
	return decodeMatch(data)
}

// PutMatch caches a match.
func (s *SQL) PutMatch(ctx context.Context, matchID string, m *riot.MatchResponse) error {
	return s.putBlob(ctx, `
		INSERT INTO match_details (match_id, match_data) VALUES (?, ?)
		ON CONFLICT(match_id) DO UPDATE SET match_data = excluded.match_data
	`, matchID, m)
}

// GetMatches returns the cached matches among matchIDs.
func (s *SQL) GetMatches(ctx context.Context, matchIDs []string) (map[string]*riot.MatchResponse, error) {
	out := make(map[string]*riot.MatchResponse, len(matchIDs))
	err := s.eachBlob(ctx, `SELECT match_id, match_data FROM match_details WHERE match_id IN (%s)`, matchIDs,
		func(id string, data []byte) error {
			m, err := decodeMatch(data)
			if err != nil {
				return err
			}
			out[id] = m
			return nil
		})
	return out, err
}

// GetTimeline returns a cached timeline.
func (s *SQL) GetTimeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error) {
	data, err := s.getBlob(ctx, `SELECT timeline_data FROM match_timelines WHERE match_id = ?`, matchID)
	if err != nil {
		return nil, err
	}
	return decodeTimeline(data)
}

// PutTimeline caches a timeline.
func (s *SQL) PutTimeline(ctx context.Context, matchID string, t *riot.TimelineResponse) error {
	return s.putBlob(ctx, `
		INSERT INTO match_timelines (match_id, timeline_data) VALUES (?, ?)
		ON CONFLICT(match_id) DO UPDATE SET timeline_data = excluded.timeline_data
	`, matchID, t)
}

// GetTimelines returns the cached timelines among matchIDs.
func (s *SQL) GetTimelines(ctx context.Context, matchIDs []string) (map[string]*riot.TimelineResponse, error) {
	out := make(map[string]*riot.TimelineResponse, len(matchIDs))
	err := s.eachBlob(ctx, `SELECT match_id, timeline_data FROM match_timelines WHERE match_id IN (%s)`, matchIDs,
		func(id string, data []byte) error {
			t, err := decodeTimeline(data)
			if err != nil {
				return err
			}
			out[id] = t
			return nil
		})
	return out, err
}

// UpsertCategory records the category of a match for a player.
func (s *SQL) UpsertCategory(ctx context.Context, matchID, puuid string, c impact.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO impact_categories (match_id, puuid, category) VALUES (?, ?, ?)
		ON CONFLICT(match_id, puuid) DO UPDATE SET category = excluded.category
	`, matchID, puuid, string(c))
	return err
}

// StoredMatchIDs returns the analyzed match ids of puuid, newest first.
func (s *SQL) StoredMatchIDs(ctx context.Context, puuid string) ([]string, error) {
	return s.queryStrings(ctx, `
		SELECT match_id FROM impact_categories WHERE puuid = ? ORDER BY match_id DESC
	`, puuid)
}

// PaginatedMatchIDs returns one page of analyzed match ids and the total count.
func (s *SQL) PaginatedMatchIDs(ctx context.Context, puuid string, limit, offset int) ([]string, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM impact_categories WHERE puuid = ?`, puuid).Scan(&total); err != nil {
		return nil, 0, err
	}

	ids, err := s.queryStrings(ctx, `
		SELECT match_id FROM impact_categories WHERE puuid = ?
		ORDER BY match_id DESC LIMIT ? OFFSET ?
	`, puuid, limit, offset)
	if err != nil {
		return nil, total, err
	}
	return ids, total, nil
}

// Categories returns every category recorded for puuid.
func (s *SQL) Categories(ctx context.Context, puuid string) ([]impact.Category, error) {
	rows, err := s.queryStrings(ctx, `SELECT category FROM impact_categories WHERE puuid = ?`, puuid)
	if err != nil {
		return nil, err
	}
	return toCategories(rows), nil
}

// RecentCategories returns the categories of the latest limit matches.
func (s *SQL) RecentCategories(ctx context.Context, puuid string, limit int) ([]impact.Category, error) {
	rows, err := s.queryStrings(ctx, `
		SELECT category FROM impact_categories WHERE puuid = ?
		ORDER BY match_id DESC LIMIT ?
	`, puuid, limit)
	if err != nil {
		return nil, err
	}
	return toCategories(rows), nil
}

func (s *SQL) getBlob(ctx context.Context, query, matchID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, query, matchID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *SQL) putBlob(ctx context.Context, query, matchID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, matchID, string(data))
	return err
}

// eachBlob expands the %s in query to one placeholder per id.
func (s *SQL) eachBlob(ctx context.Context, query string, matchIDs []string, fn func(string, []byte) error) error {
	if len(matchIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(matchIDs)), ",")
	args := make([]interface{}, len(matchIDs))
	for i, id := range matchIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(query, placeholders), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return err
		}
		if err := fn(id, []byte(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQL) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
