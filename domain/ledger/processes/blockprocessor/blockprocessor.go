package blockprocessor

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// blockProcessor is the transactional apply/rollback engine. Every
// run of blocks it applies or reverts is committed as one database
// transaction, so a crash can never leave a half-applied block
// visible. All methods must be called with the ledger's exclusive tip
// token held.
type blockProcessor struct {
	databaseContext       database.Database
	blockStore            model.BlockStore
	tipStore              model.TipStore
	mainChainStore        model.MainChainStore
	utxoStore             model.UTXOStore
	certificateStore      model.CertificateStore
	blockValidator        model.BlockValidator
	leaderElectionManager model.LeaderElectionManager
}

// New instantiates a new BlockProcessor
func New(databaseContext database.Database, blockStore model.BlockStore, tipStore model.TipStore,
	mainChainStore model.MainChainStore, utxoStore model.UTXOStore,
	certificateStore model.CertificateStore, blockValidator model.BlockValidator,
	leaderElectionManager model.LeaderElectionManager) model.BlockProcessor {

	return &blockProcessor{
		databaseContext:       databaseContext,
		blockStore:            blockStore,
		tipStore:              tipStore,
		mainChainStore:        mainChainStore,
		utxoStore:             utxoStore,
		certificateStore:      certificateStore,
		blockValidator:        blockValidator,
		leaderElectionManager: leaderElectionManager,
	}
}

func (bp *blockProcessor) VerifyAndApplyBlocks(currentSlot externalapi.SlotID,
	rollbackOnFailure bool, blocks []externalapi.Block) (*externalapi.DomainHash, error) {

	tipHash, err := bp.checkOldestParentIsTip(blocks[0].Header().ParentHash())
	if err != nil {
		return nil, err
	}

	runs := partitionIntoEpochRuns(blocks)
	var appliedBlunds []*externalapi.Blund
	for _, run := range runs {
		undos, verifyErr := bp.blockValidator.VerifyBlocks(bp.databaseContext, currentSlot, run)
		if verifyErr == nil {
			blunds := zipBlunds(run, undos)
			_, err := bp.applyRun(true, blunds)
			if err != nil {
				return nil, err
			}
			appliedBlunds = append(appliedBlunds, blunds...)
			continue
		}
		if !ruleerrors.IsRuleError(verifyErr) {
			return nil, verifyErr
		}

		if rollbackOnFailure {
			err := bp.rollbackAll(appliedBlunds)
			if err != nil {
				return nil, err
			}
			return nil, verifyErr
		}
		return bp.applyAsMuchAsPossible(currentSlot, tipHash, appliedBlunds, run, verifyErr)
	}
	return bp.tipStore.Tip(bp.databaseContext)
}

func (bp *blockProcessor) ApplyBlocks(computeLeaders bool,
	blunds []*externalapi.Blund) (*externalapi.DomainHash, error) {

	_, err := bp.checkOldestParentIsTip(blunds[0].Header().ParentHash())
	if err != nil {
		return nil, err
	}

	newTip := externalapi.NewZeroHash()
	for _, run := range partitionBlundsIntoEpochRuns(blunds) {
		newTip, err = bp.applyRun(computeLeaders, run)
		if err != nil {
			return nil, err
		}
	}
	return newTip, nil
}

func (bp *blockProcessor) RollbackBlocks(blunds []*externalapi.Blund) (*externalapi.DomainHash, error) {
	tipHash, err := bp.tipStore.Tip(bp.databaseContext)
	if err != nil {
		return nil, err
	}
	newestHash := consensushashing.BlockHash(blunds[0].Block)
	if !newestHash.Equal(tipHash) {
		return nil, ruleerrors.NewErrTipMismatch(newestHash, tipHash)
	}
	return bp.rollbackRun(blunds)
}

func (bp *blockProcessor) ApplyWithRollback(currentSlot externalapi.SlotID,
	toRollback []*externalapi.Blund, toApply []externalapi.Block) (*externalapi.DomainHash, error) {

	forkPoint, err := bp.RollbackBlocks(toRollback)
	if err != nil {
		return nil, err
	}

	newTip, applyErr := bp.VerifyAndApplyBlocks(currentSlot, true, toApply)
	if applyErr == nil {
		return newTip, nil
	}

	// The new chain could not be applied. Restore the original one
	// before surfacing the original error.
	log.Warnf("could not adopt the alternative chain above %s, restoring the previous one: %s",
		forkPoint, applyErr)
	reApply := make([]*externalapi.Blund, len(toRollback))
	for i, blund := range toRollback {
		reApply[len(toRollback)-1-i] = blund
	}
	restoredTip, err := bp.ApplyBlocks(true, reApply)
	if err != nil {
		return nil, err
	}
	expectedTip := consensushashing.BlockHash(toRollback[0].Block)
	if !restoredTip.Equal(expectedTip) {
		return nil, ruleerrors.NewErrTipMismatch(expectedTip, restoredTip)
	}
	return nil, applyErr
}

// checkOldestParentIsTip returns the tip after confirming the given
// parent hash equals it.
func (bp *blockProcessor) checkOldestParentIsTip(
	oldestParent *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	tipHash, err := bp.tipStore.Tip(bp.databaseContext)
	if err != nil {
		return nil, err
	}
	if !oldestParent.Equal(tipHash) {
		return nil, ruleerrors.NewErrTipMismatch(oldestParent, tipHash)
	}
	return tipHash, nil
}

// applyAsMuchAsPossible verifies and applies the failing run's blocks
// one at a time until one fails, then reports either the partial
// progress made in this call or, when there was none at all, the run's
// original verification error.
func (bp *blockProcessor) applyAsMuchAsPossible(currentSlot externalapi.SlotID,
	originalTip *externalapi.DomainHash, appliedBlunds []*externalapi.Blund,
	failingRun []externalapi.Block, originalErr error) (*externalapi.DomainHash, error) {

	applied := 0
	for _, block := range failingRun {
		single := []externalapi.Block{block}
		undos, err := bp.blockValidator.VerifyBlocks(bp.databaseContext, currentSlot, single)
		if err != nil {
			if !ruleerrors.IsRuleError(err) {
				return nil, err
			}
			break
		}
		_, err = bp.applyRun(true, zipBlunds(single, undos))
		if err != nil {
			return nil, err
		}
		applied++
	}

	if applied == 0 && len(appliedBlunds) == 0 {
		return originalTip, originalErr
	}
	log.Infof("applied %d of %d blocks from a failing run: %s",
		applied, len(failingRun), originalErr)
	return bp.tipStore.Tip(bp.databaseContext)
}

func (bp *blockProcessor) rollbackAll(appliedBlunds []*externalapi.Blund) error {
	if len(appliedBlunds) == 0 {
		return nil
	}
	newestFirst := make([]*externalapi.Blund, len(appliedBlunds))
	for i, blund := range appliedBlunds {
		newestFirst[len(appliedBlunds)-1-i] = blund
	}
	_, err := bp.rollbackRun(newestFirst)
	return err
}

// partitionIntoEpochRuns splits an oldest-first block sequence into
// maximal epoch-homogeneous runs. A genesis block changes the epoch,
// so it always forms a run of its own; leader election for its new
// epoch runs before the next run is verified.
func partitionIntoEpochRuns(blocks []externalapi.Block) [][]externalapi.Block {
	var runs [][]externalapi.Block
	var run []externalapi.Block
	for _, block := range blocks {
		if len(run) > 0 && startsNewRun(run[len(run)-1], block) {
			runs = append(runs, run)
			run = nil
		}
		run = append(run, block)
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

func partitionBlundsIntoEpochRuns(blunds []*externalapi.Blund) [][]*externalapi.Blund {
	var runs [][]*externalapi.Blund
	var run []*externalapi.Blund
	for _, blund := range blunds {
		if len(run) > 0 && startsNewRun(run[len(run)-1].Block, blund.Block) {
			runs = append(runs, run)
			run = nil
		}
		run = append(run, blund)
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

func startsNewRun(previous, current externalapi.Block) bool {
	if _, ok := current.(*externalapi.GenesisBlock); ok {
		return true
	}
	if _, ok := previous.(*externalapi.GenesisBlock); ok {
		return true
	}
	return previous.Header().EpochOrSlot().Epoch != current.Header().EpochOrSlot().Epoch
}

func zipBlunds(blocks []externalapi.Block, undos []*externalapi.BlockUndo) []*externalapi.Blund {
	blunds := make([]*externalapi.Blund, len(blocks))
	for i, block := range blocks {
		blunds[i] = &externalapi.Blund{Block: block, Undo: undos[i]}
	}
	return blunds
}
