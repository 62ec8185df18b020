// Package repo implements the persistence layer for the deal ledger.
//
// Two interchangeable backends satisfy the Store interface:
//
//   - FileStore: the canonical single-JSON-file ledger
//     ({"version":1,"next_id":N,"deals":[...]}) with atomic
//     write-temp-then-rename persistence.
//   - GormStore: the same records in SQLite via GORM (pure-Go driver),
//     for deployments that prefer a database file.
//
// Both assign ids from a single monotonic counter that never regresses or
// reuses values after deletes, and both guarantee read-your-write within
// the process.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It
// aliases gorm.ErrRecordNotFound so callers can errors.Is() a single value
// regardless of backend.
var ErrNotFound = gorm.ErrRecordNotFound

// Store is the ledger persistence contract consumed by the service layer.
//
// Implementations are used by a single logical writer (one inbound event is
// fully processed before the next), but must still make every write atomic
// at the storage layer so a crash mid-write never corrupts previously
// persisted state.
type Store interface {
	// Load returns all deals for guildID, oldest first. An empty guildID
	// returns every organization's deals (export/admin use).
	Load(ctx context.Context, guildID string) ([]domain.Deal, error)

	// Append persists a new deal, assigning the next monotonic id into
	// d.ID before returning.
	Append(ctx context.Context, d *domain.Deal) error

	// Update rewrites an existing deal in place, matched by d.ID.
	// Returns ErrNotFound when no such deal exists.
	Update(ctx context.Context, d *domain.Deal) error

	// Remove physically deletes the deal with the given id within guildID.
	// Returns ErrNotFound when no such deal exists.
	Remove(ctx context.Context, guildID string, id int64) error

	// Clear removes every deal belonging to guildID and returns how many
	// were dropped. The id counter is left untouched.
	Clear(ctx context.Context, guildID string) (int64, error)
}
