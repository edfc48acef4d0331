package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// LeaderElectionManager computes and serves per-epoch slot-leader
// schedules.
type LeaderElectionManager interface {
	// ComputeLeaders computes and persists the schedule for the given
	// epoch. It is idempotent: recomputing an already stored epoch is
	// a no-op.
	ComputeLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) error

	// Leaders returns the stored schedule for the given epoch, or a
	// rule error wrapping ruleerrors.ErrUnknownLeaders when the epoch
	// has not been computed yet.
	Leaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) (externalapi.SlotLeaders, error)

	// DiscardLeaders deletes the stored schedule for the given epoch.
	// Called when the genesis block that opened the epoch is rolled
	// back, so a later genesis block for the same epoch recomputes the
	// schedule from its own chain state.
	DiscardLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) error
}
