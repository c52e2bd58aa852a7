package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed course store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const courseColumns = `id::text, user_id::text, title, description, course_type, created_at`

const topicColumns = `id::text, course_id::text, title, content, ai_summary, order_index, notebook, is_placeholder, created_at`

func (s *PostgresStore) CreateCourse(ctx context.Context, c Course) (Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(c.UserID); err != nil {
		return Course{}, fmt.Errorf("invalid user_id %q", c.UserID)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO courses (user_id, title, description, course_type)
		 VALUES ($1::uuid, $2, $3, $4)
		 RETURNING `+courseColumns,
		c.UserID, c.Title, c.Description, string(c.Type),
	)
	out, err := scanCourse(row)
	if err != nil {
		return Course{}, fmt.Errorf("create course: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetCourse(ctx context.Context, id string) (Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanCourse(s.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCourses(ctx context.Context, userID string, t Type) ([]Course, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []Course{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+courseColumns+`
		 FROM courses
		 WHERE user_id = $1::uuid AND ($2 = '' OR course_type = $2)
		 ORDER BY created_at DESC`,
		userID, string(t),
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateTopic(ctx context.Context, t Topic) (Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var notebook []byte
	if t.Notebook != nil {
		var err error
		if notebook, err = json.Marshal(t.Notebook); err != nil {
			return Topic{}, fmt.Errorf("marshal notebook: %w", err)
		}
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO topics (course_id, title, content, ai_summary, order_index, notebook, is_placeholder)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb, $7)
		 RETURNING `+topicColumns,
		t.CourseID, t.Title, t.Content, t.AISummary, t.OrderIndex, nullIfEmpty(notebook), t.Placeholder,
	)
	out, err := scanTopic(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Topic{}, fmt.Errorf("order %d: %w", t.OrderIndex, ErrDuplicateOrder)
			case "23503":
				return Topic{}, fmt.Errorf("course %s: %w", t.CourseID, ErrNotFound)
			}
		}
		return Topic{}, fmt.Errorf("create topic: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetTopic(ctx context.Context, id string) (Topic, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Topic{}, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t, err := scanTopic(s.pool.QueryRow(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Topic{}, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Topic{}, fmt.Errorf("get topic: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListTopics(ctx context.Context, courseID string) ([]Topic, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return []Topic{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE course_id = $1::uuid ORDER BY order_index ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	out := []Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	var courseType string
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &courseType, &c.CreatedAt); err != nil {
		return Course{}, err
	}
	c.Type = Type(courseType)
	return c, nil
}

func scanTopic(row pgx.Row) (Topic, error) {
	var t Topic
	var notebook []byte
	if err := row.Scan(&t.ID, &t.CourseID, &t.Title, &t.Content, &t.AISummary, &t.OrderIndex, &notebook, &t.Placeholder, &t.CreatedAt); err != nil {
		return Topic{}, err
	}
	if len(notebook) > 0 {
		if err := json.Unmarshal(notebook, &t.Notebook); err != nil {
			return Topic{}, fmt.Errorf("decode notebook: %w", err)
		}
	}
	return t, nil
}

func nullIfEmpty(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
