package persistence

import (
	"context"

	"github.com/vitalog/vitalog/internal/health/records"
)

var _ Bridge = (*FileBridge)(nil)
var _ Bridge = (*RedisBridge)(nil)

// Bridge persists the full record list as a serialized array. Load and
// save must round-trip exactly: load(); save(sameData) is idempotent.
type Bridge interface {
	Load(ctx context.Context) ([]records.Record, error)
	Save(ctx context.Context, recs []records.Record) error
}
