package blockvalidator

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

func (bv *blockValidator) ValidateHeaderInIsolation(header externalapi.BlockHeader) error {
	mainHeader, ok := header.(*externalapi.MainBlockHeader)
	if !ok {
		return nil
	}
	if mainHeader.Slot.Slot >= bv.epochSlotCount {
		return errors.Wrapf(ruleerrors.ErrWrongEpoch,
			"slot offset %d is outside the epoch's %d slots", mainHeader.Slot.Slot, bv.epochSlotCount)
	}
	if len(mainHeader.LeaderPublicKey) != blocksigning.SchnorrPublicKeySize {
		return errors.Wrapf(ruleerrors.ErrBadSignature,
			"the leader public key is %d bytes, expected %d",
			len(mainHeader.LeaderPublicKey), blocksigning.SchnorrPublicKeySize)
	}
	if len(mainHeader.Signature) != blocksigning.SchnorrSignatureSize {
		return errors.Wrapf(ruleerrors.ErrBadSignature,
			"the header signature is %d bytes, expected %d",
			len(mainHeader.Signature), blocksigning.SchnorrSignatureSize)
	}
	return nil
}

func (bv *blockValidator) ValidateHeaderInContext(dbContext database.DataAccessor,
	parentHash *externalapi.DomainHash, parent externalapi.BlockHeader,
	header externalapi.BlockHeader, currentSlot externalapi.SlotID) error {

	if !header.ParentHash().Equal(parentHash) {
		return errors.Wrapf(ruleerrors.ErrBadParentHash,
			"the header's previous-hash is %s, expected %s", header.ParentHash(), parentHash)
	}

	headerPosition := header.EpochOrSlot()
	parentPosition := parent.EpochOrSlot()
	if !parentPosition.Before(headerPosition, bv.epochSlotCount) {
		return errors.Wrapf(ruleerrors.ErrNonMonotonicSlots,
			"the header sits on %s, not after its parent's %s", headerPosition, parentPosition)
	}
	currentPosition := externalapi.NewEpochSlot(currentSlot)
	if currentPosition.Before(headerPosition, bv.epochSlotCount) {
		return errors.Wrapf(ruleerrors.ErrSlotInFuture,
			"the header sits on %s, after the current slot %s", headerPosition, currentSlot)
	}

	switch header := header.(type) {
	case *externalapi.GenesisBlockHeader:
		return bv.validateGenesisHeaderInContext(parent, header)
	case *externalapi.MainBlockHeader:
		return bv.validateMainHeaderInContext(dbContext, parent, header)
	default:
		return errors.Errorf("unknown header type %T", header)
	}
}

func (bv *blockValidator) validateGenesisHeaderInContext(parent externalapi.BlockHeader,
	header *externalapi.GenesisBlockHeader) error {

	// Genesis blocks carry their parent's difficulty unchanged.
	if header.ChainDiff != parent.Difficulty() {
		return errors.Wrapf(ruleerrors.ErrBadDifficulty,
			"the genesis header declares difficulty %d, its parent has %d",
			header.ChainDiff, parent.Difficulty())
	}
	if header.Epoch != parent.EpochOrSlot().Epoch+1 {
		return errors.Wrapf(ruleerrors.ErrWrongEpoch,
			"the genesis header opens epoch %d right after epoch %d",
			header.Epoch, parent.EpochOrSlot().Epoch)
	}
	return nil
}

func (bv *blockValidator) validateMainHeaderInContext(dbContext database.DataAccessor,
	parent externalapi.BlockHeader, header *externalapi.MainBlockHeader) error {

	// Main blocks add exactly one unit of difficulty.
	if header.ChainDiff != parent.Difficulty()+1 {
		return errors.Wrapf(ruleerrors.ErrBadDifficulty,
			"the main header declares difficulty %d, its parent has %d",
			header.ChainDiff, parent.Difficulty())
	}
	if header.Slot.Epoch != parent.EpochOrSlot().Epoch {
		return errors.Wrapf(ruleerrors.ErrWrongEpoch,
			"the main header sits in epoch %d, its parent in epoch %d",
			header.Slot.Epoch, parent.EpochOrSlot().Epoch)
	}

	leaders, err := bv.leaderElectionManager.Leaders(dbContext, header.Slot.Epoch)
	if err != nil {
		return err
	}
	if int(header.Slot.Slot) >= len(leaders) {
		return errors.Wrapf(ruleerrors.ErrWrongLeader,
			"no leader is assigned to slot %s", header.Slot)
	}
	expectedLeader := leaders[header.Slot.Slot]
	if header.Leader != expectedLeader {
		return errors.Wrapf(ruleerrors.ErrWrongLeader,
			"the block for slot %s was produced by %s, the designated leader is %s",
			header.Slot, header.Leader, expectedLeader)
	}
	derivedLeader := blocksigning.StakeholderIDFromPublicKey(header.LeaderPublicKey)
	if header.Leader != *derivedLeader {
		return errors.Wrapf(ruleerrors.ErrWrongLeader,
			"the leader public key belongs to %s, the header names %s", derivedLeader, header.Leader)
	}

	valid, err := blocksigning.VerifyHash(header.LeaderPublicKey,
		consensushashing.SigningHash(header), header.Signature)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadSignature, "malformed header signature: %s", err)
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrBadSignature,
			"the header signature does not verify against the leader's public key")
	}
	return nil
}
