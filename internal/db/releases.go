package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// ReleaseRepository reads and writes the deployment ledger.
type ReleaseRepository struct {
	db *bun.DB
}

func NewReleaseRepository(database *Database) *ReleaseRepository {
	return &ReleaseRepository{db: database.Bun()}
}

// EnsureSchema creates the releases table when it does not exist yet. The
// ledger lives next to the application schema but is owned by the deploy
// tool, so it is not part of the application's migration set.
func (r *ReleaseRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*Release)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (r *ReleaseRepository) Record(ctx context.Context, release *Release) error {
	_, err := r.db.NewInsert().Model(release).Exec(ctx)
	return err
}

// Latest returns the most recent release for a service, or nil when the
// ledger has none.
func (r *ReleaseRepository) Latest(ctx context.Context, service string) (*Release, error) {
	release := new(Release)
	err := r.db.NewSelect().Model(release).
		Where("service = ?", service).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return release, nil
}

// List returns recent releases for a service, newest first.
func (r *ReleaseRepository) List(ctx context.Context, service string, limit int) ([]Release, error) {
	if limit <= 0 {
		limit = 20
	}
	var releases []Release
	err := r.db.NewSelect().Model(&releases).
		Where("service = ?", service).
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return releases, nil
}

// LastDeployed returns the most recent successful release, skipping failures.
func (r *ReleaseRepository) LastDeployed(ctx context.Context, service string) (*Release, error) {
	release := new(Release)
	err := r.db.NewSelect().Model(release).
		Where("service = ? AND status = ?", service, ReleaseDeployed).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return release, nil
}
