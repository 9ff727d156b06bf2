// Package storage persists finished match results.
// SQLite uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies;
// PostgreSQL goes through lib/pq.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/multiplayer"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store manages the database connection for match history.
type Store struct {
	db     *sql.DB
	driver string
}

// MatchRecord is a stored match result.
type MatchRecord struct {
	ID        int64         `json:"id"`
	MatchID   string        `json:"match_id"`
	GameType  string        `json:"game_type"`
	Player1ID string        `json:"player1_id"`
	Player2ID string        `json:"player2_id"`
	Score1    int           `json:"score1"`
	Score2    int           `json:"score2"`
	WinnerID  string        `json:"winner_id,omitempty"` // Empty if cancelled
	EndReason string        `json:"end_reason"`          // "completed", "disconnect", "cancelled"
	Duration  time.Duration `json:"-"`
	EndedAt   time.Time     `json:"ended_at"`
}

// PlayerStats aggregates a player's recorded matches.
type PlayerStats struct {
	PlayerID      string `json:"player_id"`
	Matches       int    `json:"matches"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
}

// Open connects to the given driver and runs migrations.
// For sqlite the DSN is a file path; ~ is expanded and parent directories
// are created.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		path, err := expandHome(dsn)
		if err != nil {
			return nil, err
		}
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
			}
		}
		dsn = path
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if driver == DriverSQLite {
		// Serialize writers, concurrent recorders otherwise get SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db, driver: driver}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS match_results (
			` + idColumn + `,
			match_id TEXT NOT NULL UNIQUE,
			game_type TEXT NOT NULL,
			player1_id TEXT NOT NULL,
			player2_id TEXT NOT NULL,
			score1 INTEGER NOT NULL DEFAULT 0,
			score2 INTEGER NOT NULL DEFAULT 0,
			winner_id TEXT NOT NULL DEFAULT '',
			end_reason TEXT NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			ended_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_results_player1 ON match_results(player1_id)`,
		`CREATE INDEX IF NOT EXISTS idx_match_results_player2 ON match_results(player2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_match_results_ended ON match_results(ended_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RecordMatchResult implements multiplayer.ResultRecorder.
func (s *Store) RecordMatchResult(ctx context.Context, r multiplayer.MatchResult) error {
	endedAt := r.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO match_results
		 (match_id, game_type, player1_id, player2_id, score1, score2, winner_id, end_reason, duration_ms, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.MatchID,
		r.GameType,
		r.Player1ID,
		r.Player2ID,
		r.Score1,
		r.Score2,
		r.WinnerID,
		r.EndReason,
		r.Duration.Milliseconds(),
		endedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save match %s: %w", r.MatchID, err)
	}
	return nil
}

// Ensure Store implements ResultRecorder
var _ multiplayer.ResultRecorder = (*Store)(nil)

const selectMatch = `SELECT id, match_id, game_type, player1_id, player2_id,
		score1, score2, winner_id, end_reason, duration_ms, ended_at
	 FROM match_results`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (MatchRecord, error) {
	var rec MatchRecord
	var durationMS, endedAt int64
	err := row.Scan(
		&rec.ID,
		&rec.MatchID,
		&rec.GameType,
		&rec.Player1ID,
		&rec.Player2ID,
		&rec.Score1,
		&rec.Score2,
		&rec.WinnerID,
		&rec.EndReason,
		&durationMS,
		&endedAt,
	)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.EndedAt = time.UnixMilli(endedAt)
	return rec, err
}

// MatchByID retrieves a match by its match ID. Returns nil if not found.
func (s *Store) MatchByID(ctx context.Context, matchID string) (*MatchRecord, error) {
	rec, err := scanMatch(s.db.QueryRowContext(ctx, s.rebind(selectMatch+` WHERE match_id = ?`), matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	return &rec, nil
}

// RecentMatches retrieves the most recently finished matches.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(ctx, selectMatch+` ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
}

// PlayerMatchHistory retrieves the matches a player took part in, newest first.
func (s *Store) PlayerMatchHistory(ctx context.Context, playerID string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(ctx,
		selectMatch+` WHERE player1_id = ? OR player2_id = ? ORDER BY ended_at DESC, id DESC LIMIT ?`,
		playerID, playerID, limit,
	)
}

func (s *Store) queryMatches(ctx context.Context, query string, args ...any) ([]MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var results []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// PlayerStats aggregates wins, losses and points for a player. Cancelled
// matches count as played but neither won nor lost.
func (s *Store) PlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	stats := &PlayerStats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN winner_id <> '' AND winner_id <> ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN player1_id = ? THEN score1 ELSE score2 END), 0),
		        COALESCE(SUM(CASE WHEN player1_id = ? THEN score2 ELSE score1 END), 0)
		 FROM match_results
		 WHERE player1_id = ? OR player2_id = ?`),
		playerID, playerID, playerID, playerID, playerID, playerID,
	).Scan(&stats.Matches, &stats.Wins, &stats.Losses, &stats.PointsFor, &stats.PointsAgainst)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	return stats, nil
}
