package persist

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists match records to a Postgres table via database/sql,
// adapted from the teacher's DatabaseStateManager connection setup.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and ensures the match_results
// table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("persist: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("persist: ping postgres: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS match_results (
	id SERIAL PRIMARY KEY,
	lobby_code TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	player_count INT NOT NULL,
	wave_reached INT NOT NULL,
	duration_seconds DOUBLE PRECISION NOT NULL,
	survived BOOLEAN NOT NULL,
	ended_at TIMESTAMPTZ NOT NULL
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveMatch(ctx context.Context, m MatchRecord) error {
	const q = `
INSERT INTO match_results
	(lobby_code, difficulty, player_count, wave_reached, duration_seconds, survived, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, q,
		m.LobbyCode, m.Difficulty, m.PlayerCount, m.WaveReached, m.DurationSecs, m.Survived, m.EndedAt)
	if err != nil {
		return fmt.Errorf("persist: save match: %w", err)
	}
	return nil
}

func (s *PostgresStore) TopScores(ctx context.Context, limit int) ([]MatchRecord, error) {
	const q = `
SELECT lobby_code, difficulty, player_count, wave_reached, duration_seconds, survived, ended_at
FROM match_results
ORDER BY wave_reached DESC, duration_seconds DESC
LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("persist: top scores: %w", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.LobbyCode, &m.Difficulty, &m.PlayerCount, &m.WaveReached,
			&m.DurationSecs, &m.Survived, &m.EndedAt); err != nil {
			return nil, fmt.Errorf("persist: scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
