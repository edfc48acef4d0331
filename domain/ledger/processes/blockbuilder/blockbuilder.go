package blockbuilder

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/orosnet/orosd/version"
	"github.com/pkg/errors"
)

// protocolVersion is the protocol version stamped into locally built
// main block headers.
const protocolVersion = 1

// blockBuilder constructs genesis blocks at epoch boundaries and main
// blocks for slots this node leads, and pushes them through the block
// processor. Both operations must be called with the ledger's
// exclusive tip token held.
type blockBuilder struct {
	databaseContext       database.Database
	blockStore            model.BlockStore
	tipStore              model.TipStore
	blockValidator        model.BlockValidator
	blockProcessor        model.BlockProcessor
	leaderElectionManager model.LeaderElectionManager
	payloadManager        model.PayloadManager
	delegationManager     model.DelegationManager
	mempool               model.Mempool

	keyPair *secp256k1.SchnorrKeyPair

	epochSlotCount          uint32
	slotSecurityParam       uint32
	mempoolTxResidencySlots uint32
}

// New instantiates a new BlockBuilder signing with the given keypair
func New(databaseContext database.Database, blockStore model.BlockStore, tipStore model.TipStore,
	blockValidator model.BlockValidator, blockProcessor model.BlockProcessor,
	leaderElectionManager model.LeaderElectionManager, payloadManager model.PayloadManager,
	delegationManager model.DelegationManager, mempool model.Mempool,
	keyPair *secp256k1.SchnorrKeyPair, epochSlotCount, slotSecurityParam,
	mempoolTxResidencySlots uint32) model.BlockBuilder {

	return &blockBuilder{
		databaseContext:         databaseContext,
		blockStore:              blockStore,
		tipStore:                tipStore,
		blockValidator:          blockValidator,
		blockProcessor:          blockProcessor,
		leaderElectionManager:   leaderElectionManager,
		payloadManager:          payloadManager,
		delegationManager:       delegationManager,
		mempool:                 mempool,
		keyPair:                 keyPair,
		epochSlotCount:          epochSlotCount,
		slotSecurityParam:       slotSecurityParam,
		mempoolTxResidencySlots: mempoolTxResidencySlots,
	}
}

func (bb *blockBuilder) CreateGenesisBlock(epoch externalapi.EpochIndex) (
	*externalapi.GenesisBlock, *externalapi.DomainHash, error) {

	tipHash, err := bb.tipStore.Tip(bb.databaseContext)
	if err != nil {
		return nil, nil, err
	}
	tipHeader, err := bb.blockStore.Header(bb.databaseContext, tipHash)
	if err != nil {
		return nil, nil, err
	}
	if !bb.isEpochEligible(epoch, tipHeader) {
		return nil, tipHash, nil
	}

	leaders, err := bb.resolveLeaders(epoch)
	if err != nil {
		var unknownLeaders ruleerrors.ErrUnknownLeaders
		if errors.As(err, &unknownLeaders) {
			log.Infof("skipping the genesis block for epoch %d: no slot leaders yet", epoch)
			return nil, tipHash, nil
		}
		return nil, nil, err
	}

	body := &externalapi.GenesisBlockBody{Leaders: leaders}
	block := &externalapi.GenesisBlock{
		GenesisHeader: &externalapi.GenesisBlockHeader{
			Parent:         *tipHash,
			Epoch:          epoch,
			ChainDiff:      tipHeader.Difficulty(),
			BodyCommitment: *consensushashing.GenesisBodyHash(body),
		},
		Body: body,
	}

	newTip, err := bb.blockProcessor.ApplyBlocks(true,
		[]*externalapi.Blund{{Block: block, Undo: externalapi.NewEmptyBlockUndo()}})
	if err != nil {
		return nil, nil, err
	}
	log.Infof("created the genesis block %s for epoch %d", newTip, epoch)
	return block, newTip, nil
}

// isEpochEligible reports whether a genesis block for the given epoch
// may be built on the given tip: the tip must sit in the closing
// stretch of the preceding epoch. Epoch 0 is hardcoded and never
// built.
func (bb *blockBuilder) isEpochEligible(epoch externalapi.EpochIndex,
	tipHeader externalapi.BlockHeader) bool {

	if epoch == 0 {
		return false
	}
	tipPosition := tipHeader.EpochOrSlot()
	if tipPosition.IsBoundary || tipPosition.Epoch != epoch-1 {
		return false
	}
	return tipPosition.Slot >= bb.epochSlotCount-bb.slotSecurityParam
}

// resolveLeaders computes (idempotently) and fetches the slot-leader
// schedule for the given epoch.
func (bb *blockBuilder) resolveLeaders(epoch externalapi.EpochIndex) (externalapi.SlotLeaders, error) {
	err := bb.leaderElectionManager.ComputeLeaders(bb.databaseContext, epoch)
	if err != nil {
		return nil, err
	}
	return bb.leaderElectionManager.Leaders(bb.databaseContext, epoch)
}

func (bb *blockBuilder) CreateMainBlock(slot externalapi.SlotID) (*externalapi.MainBlock, error) {
	tipHash, err := bb.tipStore.Tip(bb.databaseContext)
	if err != nil {
		return nil, err
	}
	tipHeader, err := bb.blockStore.Header(bb.databaseContext, tipHash)
	if err != nil {
		return nil, err
	}
	err = bb.checkSlotEligibility(slot, tipHeader)
	if err != nil {
		return nil, err
	}

	transactions, undos, err := bb.selectTransactions(slot)
	if err != nil {
		return nil, err
	}

	payload := bb.payloadManager.LocalPayload(slot)
	if payload == nil {
		payload = &externalapi.ConsensusPayload{}
	}
	body := &externalapi.MainBlockBody{
		Transactions: transactions,
		Payload:      payload,
		Certificates: bb.delegationManager.PendingCertificates(slot.Epoch),
	}

	publicKey, err := blocksigning.SerializePublicKey(bb.keyPair)
	if err != nil {
		return nil, err
	}
	header := &externalapi.MainBlockHeader{
		Parent:          *tipHash,
		Slot:            slot,
		ChainDiff:       tipHeader.Difficulty() + 1,
		ProtocolVersion: protocolVersion,
		SoftwareVersion: version.Version(),
		BodyCommitment:  *consensushashing.MainBodyHash(body),
		Leader:          *blocksigning.StakeholderIDFromPublicKey(publicKey),
		LeaderPublicKey: publicKey,
	}
	header.Signature, err = blocksigning.SignHash(bb.keyPair, consensushashing.SigningHash(header))
	if err != nil {
		return nil, err
	}
	block := &externalapi.MainBlock{MainHeader: header, Body: body}

	// A failing self-check is diagnostic only; the block was built
	// from data that already passed verification.
	_, err = bb.blockValidator.VerifyBlocks(bb.databaseContext, slot, []externalapi.Block{block})
	if err != nil {
		log.Warnf("the freshly built block for slot %s does not self-verify: %s", slot, err)
	}

	undo := &externalapi.BlockUndo{TxUndos: undos}
	newTip, err := bb.blockProcessor.ApplyBlocks(true,
		[]*externalapi.Blund{{Block: block, Undo: undo}})
	if err != nil {
		return nil, err
	}
	bb.mempool.RemoveTransactions(transactions)
	if len(payload.Entries) > 0 {
		bb.payloadManager.ClearQueued()
	}
	log.Infof("created block %s for slot %s with %d transactions", newTip, slot, len(transactions))
	return block, nil
}

// checkSlotEligibility refuses building against a chain state the slot
// cannot follow: the slot must be strictly after the tip's, within the
// same epoch, and no more than slotSecurityParam slots ahead.
func (bb *blockBuilder) checkSlotEligibility(slot externalapi.SlotID,
	tipHeader externalapi.BlockHeader) error {

	tipPosition := tipHeader.EpochOrSlot()
	slotPosition := externalapi.NewEpochSlot(slot)
	if !tipPosition.Before(slotPosition, bb.epochSlotCount) {
		return errors.Errorf("cannot build a block for slot %s, the tip already sits on %s",
			slot, tipPosition)
	}
	if slot.Epoch != tipPosition.Epoch {
		return errors.Errorf("cannot build a block for slot %s on a tip in epoch %d",
			slot, tipPosition.Epoch)
	}
	distance := slotPosition.FlatIndex(bb.epochSlotCount) - tipPosition.FlatIndex(bb.epochSlotCount)
	if distance > uint64(bb.slotSecurityParam) {
		return errors.Errorf("cannot build a block for slot %s, %d slots past the tip's %s",
			slot, distance, tipPosition)
	}
	return nil
}

// selectTransactions pulls the mempool's content, orders it by spend
// dependency and retains the transactions that have been resident
// long enough to be safely included.
func (bb *blockBuilder) selectTransactions(slot externalapi.SlotID) (
	[]*externalapi.DomainTransaction, []*externalapi.TransactionUndo, error) {

	pooled := bb.mempool.TransactionsWithUndo()
	sorted, err := bb.mempool.TopologicalSort(pooled)
	if err != nil {
		return nil, nil, err
	}

	slotPosition := externalapi.NewEpochSlot(slot)
	transactions := make([]*externalapi.DomainTransaction, 0, len(sorted))
	undos := make([]*externalapi.TransactionUndo, 0, len(sorted))
	slotFlat := slotPosition.FlatIndex(bb.epochSlotCount)
	for _, entry := range sorted {
		arrivalFlat := entry.Arrival.FlatIndex(bb.epochSlotCount)
		if arrivalFlat > slotFlat || slotFlat-arrivalFlat < uint64(bb.mempoolTxResidencySlots) {
			continue
		}
		if entry.Undo == nil {
			log.Criticalf("mempool transaction %s has no undo record",
				consensushashing.TransactionID(entry.Transaction))
			panic("missing undo data for a mempool transaction selected for inclusion")
		}
		transactions = append(transactions, entry.Transaction)
		undos = append(undos, entry.Undo)
	}
	return transactions, undos, nil
}
