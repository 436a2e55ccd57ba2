package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the transcript in PostgreSQL. Turns are append-only;
// a turn saved twice under the same id is stored once.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transcript_turns (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_turns_sender_created ON transcript_turns (sender_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_turns_session ON transcript_turns (session_id);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveTurn(ctx context.Context, record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcript_turns (id, sender_id, session_id, direction, kind, content, pii_redacted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		record.ID,
		record.SenderID,
		record.SessionID,
		record.Direction,
		record.Kind,
		record.Content,
		record.PIIRedacted,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save %s turn for %s: %w", record.Direction, record.SenderID, err)
	}
	return nil
}

func (s *PostgresStore) RecentTurns(ctx context.Context, senderID string, limit int) ([]TurnRecord, error) {
	limit = TranscriptLimit(limit)

	// Newest page first, then flipped so the conversation reads in order.
	// id breaks ties between turns stamped in the same instant.
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, session_id, direction, kind, content, pii_redacted, created_at
		 FROM transcript_turns WHERE sender_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		senderID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript for %s: %w", senderID, err)
	}
	defer rows.Close()

	items := make([]TurnRecord, 0, limit)
	for rows.Next() {
		var r TurnRecord
		if err := rows.Scan(&r.ID, &r.SenderID, &r.SessionID, &r.Direction, &r.Kind, &r.Content, &r.PIIRedacted, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
