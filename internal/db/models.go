package db

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ReleaseDeployed = "deployed"
	ReleaseFailed   = "failed"
)

// Release is one row in the deployment ledger, recorded after every rollout
// attempt.
type Release struct {
	bun.BaseModel `bun:"table:releases"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Service     string    `bun:"service,notnull"`
	ImageTag    string    `bun:"image_tag,notnull"`
	ImageDigest string    `bun:"image_digest"`
	Revision    string    `bun:"revision"`
	TaskDefARN  string    `bun:"task_def_arn"`
	Status      string    `bun:"status,notnull"`
	Notes       *string   `bun:"notes"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
