package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const criterionColumns = `id, seq, owner, module_type, name, description, weight, kind,
	min_value, max_value, created_at, updated_at`

func (s *PostgresStore) CreateCriterion(ctx context.Context, c *Criterion) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO assay_criteria (owner, module_type, name, description, weight, kind, min_value, max_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, seq, created_at, updated_at`,
		c.Owner, c.ModuleType, c.Name, c.Description, c.Weight, c.Kind, c.MinValue, c.MaxValue,
	).Scan(&c.ID, &c.Seq, &c.CreatedAt, &c.UpdatedAt)
}

func (s *PostgresStore) GetCriterion(ctx context.Context, id uuid.UUID) (*Criterion, error) {
	c := &Criterion{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+criterionColumns+`
		FROM assay_criteria WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.Seq, &c.Owner, &c.ModuleType, &c.Name, &c.Description, &c.Weight, &c.Kind,
		&c.MinValue, &c.MaxValue, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) UpdateCriterion(ctx context.Context, c *Criterion) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE assay_criteria SET
			name = $2, description = $3, weight = $4, kind = $5,
			min_value = $6, max_value = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Description, c.Weight, c.Kind, c.MinValue, c.MaxValue,
	).Scan(&c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil
	}
	return err
}

func (s *PostgresStore) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM assay_criteria WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ListCriteria(ctx context.Context, owner string, module ModuleType) ([]*Criterion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+criterionColumns+`
		FROM assay_criteria WHERE owner = $1 AND module_type = $2
		ORDER BY seq ASC`, owner, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Criterion
	for rows.Next() {
		c := &Criterion{}
		if err := rows.Scan(
			&c.ID, &c.Seq, &c.Owner, &c.ModuleType, &c.Name, &c.Description, &c.Weight, &c.Kind,
			&c.MinValue, &c.MaxValue, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertScore(ctx context.Context, rec *ScoreRecord) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO assay_scores (owner, subject_id, alternative_id, criterion_id, score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner, subject_id, alternative_id, criterion_id)
		DO UPDATE SET score = EXCLUDED.score, updated_at = now()
		RETURNING updated_at`,
		rec.Owner, rec.SubjectID, rec.AlternativeID, rec.CriterionID, rec.Score,
	).Scan(&rec.UpdatedAt)
}

func (s *PostgresStore) ListScores(ctx context.Context, filter ScoreFilter) ([]*ScoreRecord, error) {
	query := `SELECT owner, subject_id, alternative_id, criterion_id, score, updated_at
		FROM assay_scores WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Owner != "" {
		n++
		query += fmt.Sprintf(" AND owner = $%d", n)
		args = append(args, filter.Owner)
	}
	if filter.SubjectID != "" {
		n++
		query += fmt.Sprintf(" AND subject_id = $%d", n)
		args = append(args, filter.SubjectID)
	}
	query += " ORDER BY seq ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ScoreRecord
	for rows.Next() {
		r := &ScoreRecord{}
		if err := rows.Scan(&r.Owner, &r.SubjectID, &r.AlternativeID, &r.CriterionID, &r.Score, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteOrphanScores(ctx context.Context, owner string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM assay_scores sc
		WHERE NOT EXISTS (SELECT 1 FROM assay_criteria c WHERE c.id = sc.criterion_id)
		AND ($1 = '' OR sc.owner = $1)`, owner)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM assay_criteria),
			(SELECT COUNT(*) FROM assay_scores),
			(SELECT COUNT(*) FROM assay_scores sc
				WHERE NOT EXISTS (SELECT 1 FROM assay_criteria c WHERE c.id = sc.criterion_id))`,
	).Scan(&stats.Criteria, &stats.Scores, &stats.OrphanScores)
	return stats, err
}
