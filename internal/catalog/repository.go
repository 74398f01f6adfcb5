package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateBuild(ctx context.Context, build *Build) error
	GetBuild(ctx context.Context, id string) (*Build, error)
	ListBuilds(ctx context.Context, limit int) ([]*Build, error)
	ListPendingBuilds(ctx context.Context) ([]*Build, error)
	UpdateBuildStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateBuildResult(ctx context.Context, id string, result BuildResult) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const buildColumns = `id, status, beats_path, video_path, output_path,
	raw_duration, duration_sec, segment_count, transition_count, fallback_used,
	error, created_at, updated_at`

func (r *SQLiteRepository) CreateBuild(ctx context.Context, b *Build) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO builds (id, status, beats_path, video_path, output_path,
			raw_duration, duration_sec, segment_count, transition_count, fallback_used,
			error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Status, b.BeatsPath, b.VideoPath, b.OutputPath,
		b.RawDuration, b.DurationSec, b.SegmentCount, b.TransitionCount, boolToInt(b.FallbackUsed),
		b.Error, b.CreatedAt.Format(time.RFC3339), b.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetBuild(ctx context.Context, id string) (*Build, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+` FROM builds WHERE id = ?
	`, id)
	return r.scanBuild(row)
}

func (r *SQLiteRepository) ListBuilds(ctx context.Context, limit int) ([]*Build, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+buildColumns+` FROM builds ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanBuilds(rows)
}

func (r *SQLiteRepository) ListPendingBuilds(ctx context.Context) ([]*Build, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+buildColumns+` FROM builds WHERE status = ? ORDER BY created_at, id
	`, BuildStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanBuilds(rows)
}

func (r *SQLiteRepository) UpdateBuildStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE builds SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, errorMsg, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) UpdateBuildResult(ctx context.Context, id string, result BuildResult) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE builds
		SET raw_duration = ?, duration_sec = ?, segment_count = ?, transition_count = ?,
			fallback_used = ?, updated_at = ?
		WHERE id = ?
	`, result.RawDuration, result.DurationSec, result.SegmentCount, result.TransitionCount,
		boolToInt(result.FallbackUsed), time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SQLiteRepository) scanBuild(row *sql.Row) (*Build, error) {
	b, err := scanBuildRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *SQLiteRepository) scanBuilds(rows *sql.Rows) ([]*Build, error) {
	var builds []*Build
	for rows.Next() {
		b, err := scanBuildRow(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

func scanBuildRow(row rowScanner) (*Build, error) {
	var b Build
	var fallbackUsed int
	var createdAt, updatedAt string

	err := row.Scan(&b.ID, &b.Status, &b.BeatsPath, &b.VideoPath, &b.OutputPath,
		&b.RawDuration, &b.DurationSec, &b.SegmentCount, &b.TransitionCount, &fallbackUsed,
		&b.Error, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	b.FallbackUsed = fallbackUsed == 1
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &b, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
