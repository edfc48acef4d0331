package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// BlockProcessor is the transactional apply/rollback engine. All four
// operations mutate the tip and must be called with the ledger's
// exclusive tip token held.
type BlockProcessor interface {
	// VerifyAndApplyBlocks verifies and applies the given oldest-first
	// block sequence in epoch-homogeneous runs. With rollbackOnFailure
	// a failing run undoes all progress made in this call; without it
	// the engine keeps as much verified prefix as possible. Returns
	// the resulting tip.
	VerifyAndApplyBlocks(currentSlot externalapi.SlotID, rollbackOnFailure bool, blocks []externalapi.Block) (*externalapi.DomainHash, error)

	// ApplyBlocks applies already verified blunds oldest-first,
	// triggering leader election at epoch boundaries when
	// computeLeaders is set. Returns the resulting tip.
	ApplyBlocks(computeLeaders bool, blunds []*externalapi.Blund) (*externalapi.DomainHash, error)

	// RollbackBlocks reverts the given newest-first blunds. The
	// newest blund must be the current tip. Returns the resulting
	// tip.
	RollbackBlocks(blunds []*externalapi.Blund) (*externalapi.DomainHash, error)

	// ApplyWithRollback rolls back toRollback, applies toApply with
	// full rollback on failure, and re-applies toRollback if toApply
	// could not be applied. Returns the resulting tip.
	ApplyWithRollback(currentSlot externalapi.SlotID, toRollback []*externalapi.Blund, toApply []externalapi.Block) (*externalapi.DomainHash, error)
}
