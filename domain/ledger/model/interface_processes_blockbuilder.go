package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// BlockBuilder constructs and applies new blocks at epoch and slot
// boundaries. Both operations mutate the tip and must be called with
// the ledger's exclusive tip token held.
type BlockBuilder interface {
	// CreateGenesisBlock builds, applies and returns the genesis
	// block opening the given epoch when the tip is close enough to
	// the epoch boundary. It returns a nil block when the epoch is
	// not yet eligible or its leader schedule is not yet known.
	// Returns the resulting tip alongside the block.
	CreateGenesisBlock(epoch externalapi.EpochIndex) (*externalapi.GenesisBlock, *externalapi.DomainHash, error)

	// CreateMainBlock builds, applies and returns a main block for
	// the given slot from local mempool content.
	CreateMainBlock(slot externalapi.SlotID) (*externalapi.MainBlock, error)
}
