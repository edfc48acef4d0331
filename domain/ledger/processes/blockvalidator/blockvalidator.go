package blockvalidator

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// blockValidator validates headers and block sequences: header
// structure and linking, body commitments, slot-leader identity and
// signatures, consensus payloads and transactions.
type blockValidator struct {
	blockStore            model.BlockStore
	tipStore              model.TipStore
	leaderElectionManager model.LeaderElectionManager
	payloadManager        model.PayloadManager
	transactionValidator  model.TransactionValidator
	delegationManager     model.DelegationManager

	epochSlotCount uint32
}

// New instantiates a new BlockValidator
func New(blockStore model.BlockStore, tipStore model.TipStore,
	leaderElectionManager model.LeaderElectionManager, payloadManager model.PayloadManager,
	transactionValidator model.TransactionValidator, delegationManager model.DelegationManager,
	epochSlotCount uint32) model.BlockValidator {

	return &blockValidator{
		blockStore:            blockStore,
		tipStore:              tipStore,
		leaderElectionManager: leaderElectionManager,
		payloadManager:        payloadManager,
		transactionValidator:  transactionValidator,
		delegationManager:     delegationManager,
		epochSlotCount:        epochSlotCount,
	}
}

func (bv *blockValidator) VerifyBlocks(dbContext database.DataAccessor,
	currentSlot externalapi.SlotID, blocks []externalapi.Block) ([]*externalapi.BlockUndo, error) {

	if len(blocks) == 0 {
		return nil, errors.New("cannot verify an empty block sequence")
	}

	// The tip header is prepended as parent context so the oldest
	// block's linking is verified across the sequence boundary.
	parentHash, err := bv.tipStore.Tip(dbContext)
	if err != nil {
		return nil, err
	}
	parentHeader, err := bv.blockStore.Header(dbContext, parentHash)
	if err != nil {
		return nil, err
	}

	for _, block := range blocks {
		header := block.Header()
		err := bv.ValidateHeaderInIsolation(header)
		if err != nil {
			return nil, err
		}
		err = bv.ValidateHeaderInContext(dbContext, parentHash, parentHeader, header, currentSlot)
		if err != nil {
			return nil, err
		}
		err = bv.validateBodyInIsolation(block)
		if err != nil {
			return nil, err
		}
		parentHash = consensushashing.BlockHash(block)
		parentHeader = header
	}

	err = bv.payloadManager.VerifyPayloads(true, blocks)
	if err != nil {
		return nil, err
	}

	txUndos, err := bv.transactionValidator.VerifyBlockTransactions(dbContext, blocks)
	if err != nil {
		return nil, err
	}
	replacedCertificates, err := bv.delegationManager.VerifyBlockCertificates(dbContext, blocks)
	if err != nil {
		return nil, err
	}

	undos := make([]*externalapi.BlockUndo, len(blocks))
	for i := range blocks {
		undos[i] = &externalapi.BlockUndo{
			TxUndos:              txUndos[i],
			ReplacedCertificates: replacedCertificates[i],
		}
	}
	return undos, nil
}

// validateBodyInIsolation checks that the block's body matches the
// commitment its header declares, and for genesis blocks that the
// leader schedule covers the whole epoch.
func (bv *blockValidator) validateBodyInIsolation(block externalapi.Block) error {
	bodyHash := consensushashing.BodyHash(block)
	if !bodyHash.Equal(block.Header().BodyHash()) {
		return errors.Wrapf(ruleerrors.ErrBadBodyHash,
			"the block's body hashes to %s, not the declared %s", bodyHash, block.Header().BodyHash())
	}
	if genesisBlock, ok := block.(*externalapi.GenesisBlock); ok {
		if len(genesisBlock.Body.Leaders) != int(bv.epochSlotCount) {
			return errors.Wrapf(ruleerrors.ErrBadLeaderCount,
				"the genesis block assigns %d slot leaders, the epoch has %d slots",
				len(genesisBlock.Body.Leaders), bv.epochSlotCount)
		}
	}
	return nil
}
