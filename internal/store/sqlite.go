package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a single-file backend for one-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database at %q: %w", path, err)
	}
	// One connection avoids "database is locked" under concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteCriterionColumns = `id, seq, owner, module_type, name, description, weight, kind,
	min_value, max_value, created_at, updated_at`

func (s *SQLiteStore) CreateCriterion(ctx context.Context, c *Criterion) error {
	now := time.Now().UTC()
	id := uuid.New()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO assay_criteria (id, owner, module_type, name, description, weight, kind, min_value, max_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), c.Owner, string(c.ModuleType), c.Name, c.Description, c.Weight, string(c.Kind),
		c.MinValue, c.MaxValue, now, now,
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read criterion seq: %w", err)
	}
	c.ID = id
	c.Seq = seq
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetCriterion(ctx context.Context, id uuid.UUID) (*Criterion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteCriterionColumns+`
		FROM assay_criteria WHERE id = ?`, id.String())
	c, err := scanSQLiteCriterion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) UpdateCriterion(ctx context.Context, c *Criterion) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE assay_criteria SET
			name = ?, description = ?, weight = ?, kind = ?,
			min_value = ?, max_value = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Description, c.Weight, string(c.Kind), c.MinValue, c.MaxValue, now, c.ID.String(),
	)
	if err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM assay_criteria WHERE id = ?`, id.String())
	return err
}

func (s *SQLiteStore) ListCriteria(ctx context.Context, owner string, module ModuleType) ([]*Criterion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteCriterionColumns+`
		FROM assay_criteria WHERE owner = ? AND module_type = ?
		ORDER BY seq ASC`, owner, string(module))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Criterion
	for rows.Next() {
		c, err := scanSQLiteCriterion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertScore(ctx context.Context, rec *ScoreRecord) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assay_scores (owner, subject_id, alternative_id, criterion_id, score, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, subject_id, alternative_id, criterion_id)
		DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		rec.Owner, rec.SubjectID, rec.AlternativeID, rec.CriterionID.String(), rec.Score, now,
	)
	if err != nil {
		return err
	}
	rec.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) ListScores(ctx context.Context, filter ScoreFilter) ([]*ScoreRecord, error) {
	query := `SELECT owner, subject_id, alternative_id, criterion_id, score, updated_at
		FROM assay_scores WHERE 1=1`
	var args []interface{}
	if filter.Owner != "" {
		query += " AND owner = ?"
		args = append(args, filter.Owner)
	}
	if filter.SubjectID != "" {
		query += " AND subject_id = ?"
		args = append(args, filter.SubjectID)
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ScoreRecord
	for rows.Next() {
		r := &ScoreRecord{}
		var criterionID string
		if err := rows.Scan(&r.Owner, &r.SubjectID, &r.AlternativeID, &criterionID, &r.Score, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if r.CriterionID, err = uuid.Parse(criterionID); err != nil {
			return nil, fmt.Errorf("parse criterion id %q: %w", criterionID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteOrphanScores(ctx context.Context, owner string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM assay_scores
		WHERE criterion_id NOT IN (SELECT id FROM assay_criteria)
		AND (? = '' OR owner = ?)`, owner, owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM assay_criteria),
			(SELECT COUNT(*) FROM assay_scores),
			(SELECT COUNT(*) FROM assay_scores WHERE criterion_id NOT IN (SELECT id FROM assay_criteria))`,
	).Scan(&stats.Criteria, &stats.Scores, &stats.OrphanScores)
	return stats, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteCriterion(row rowScanner) (*Criterion, error) {
	c := &Criterion{}
	var id, module, kind string
	var minValue, maxValue sql.NullFloat64
	if err := row.Scan(
		&id, &c.Seq, &c.Owner, &module, &c.Name, &c.Description, &c.Weight, &kind,
		&minValue, &maxValue, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse criterion id %q: %w", id, err)
	}
	c.ID = parsed
	c.ModuleType = ModuleType(module)
	c.Kind = CriterionKind(kind)
	if minValue.Valid {
		v := minValue.Float64
		c.MinValue = &v
	}
	if maxValue.Valid {
		v := maxValue.Float64
		c.MaxValue = &v
	}
	return c, nil
}
