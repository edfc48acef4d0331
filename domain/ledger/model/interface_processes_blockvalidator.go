package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// BlockValidator verifies headers and contiguous block sequences
// against the current tip.
type BlockValidator interface {
	// ValidateHeaderInIsolation checks the header's self-contained
	// structure.
	ValidateHeaderInIsolation(header externalapi.BlockHeader) error

	// ValidateHeaderInContext checks the header against its parent:
	// linking, difficulty accounting, slot monotonicity, the ambient
	// current slot, and for main headers the slot leader's identity
	// and signature.
	ValidateHeaderInContext(dbContext database.DataAccessor, parentHash *externalapi.DomainHash,
		parent externalapi.BlockHeader, header externalapi.BlockHeader,
		currentSlot externalapi.SlotID) error

	// VerifyBlocks verifies the given oldest-first contiguous block
	// sequence, prepending the current tip block for cross-boundary
	// header linking, and returns one undo per block. The first
	// failing check aborts with a rule error.
	VerifyBlocks(dbContext database.DataAccessor, currentSlot externalapi.SlotID, blocks []externalapi.Block) ([]*externalapi.BlockUndo, error)
}
