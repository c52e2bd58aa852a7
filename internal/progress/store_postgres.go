package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-course/internal/quiz"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const recordColumns = `id::text, user_id::text, course_id::text, topic_id::text, completed, score, total_questions, difficulty, updated_at`

func (s *PostgresStore) Upsert(ctx context.Context, r Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := scanRecord(s.pool.QueryRow(ctx,
		`INSERT INTO progress (user_id, course_id, topic_id, completed, score, total_questions, difficulty, updated_at)
		 VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, now())
		 ON CONFLICT (user_id, topic_id) DO UPDATE SET
		     course_id = EXCLUDED.course_id,
		     completed = EXCLUDED.completed,
		     score = EXCLUDED.score,
		     total_questions = EXCLUDED.total_questions,
		     difficulty = EXCLUDED.difficulty,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+recordColumns,
		r.UserID, r.CourseID, r.TopicID, r.Completed, r.Score, r.TotalQuestions, string(r.Difficulty),
	))
	if err != nil {
		return Record{}, fmt.Errorf("upsert progress: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, topicID string) (Record, bool, error) {
	if !validIDs(userID, topicID) {
		return Record{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	r, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM progress WHERE user_id = $1::uuid AND topic_id = $2::uuid`,
		userID, topicID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get progress: %w", err)
	}
	return r, true, nil
}

func (s *PostgresStore) ListByCourse(ctx context.Context, userID, courseID string) ([]Record, error) {
	if !validIDs(userID, courseID) {
		return []Record{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM progress
		 WHERE user_id = $1::uuid AND course_id = $2::uuid
		 ORDER BY updated_at ASC`,
		userID, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var difficulty string
	if err := row.Scan(&r.ID, &r.UserID, &r.CourseID, &r.TopicID, &r.Completed, &r.Score, &r.TotalQuestions, &difficulty, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	r.Difficulty = quiz.Difficulty(difficulty)
	return r, nil
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
