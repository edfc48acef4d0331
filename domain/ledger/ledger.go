// Package ledger assembles the ledger core: the stores, processes and
// collaborators that together maintain the local chain state.
package ledger

import (
	"sync"

	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/chainparams"
	"github.com/orosnet/orosd/domain/delegation"
	"github.com/orosnet/orosd/domain/ledger/datastructures/blockstore"
	"github.com/orosnet/orosd/domain/ledger/datastructures/certificatestore"
	"github.com/orosnet/orosd/domain/ledger/datastructures/leaderstore"
	"github.com/orosnet/orosd/domain/ledger/datastructures/mainchainstore"
	"github.com/orosnet/orosd/domain/ledger/datastructures/tipstore"
	"github.com/orosnet/orosd/domain/ledger/datastructures/utxostore"
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/processes/blockbuilder"
	"github.com/orosnet/orosd/domain/ledger/processes/blockprocessor"
	"github.com/orosnet/orosd/domain/ledger/processes/blockvalidator"
	"github.com/orosnet/orosd/domain/ledger/processes/headerclassifier"
	"github.com/orosnet/orosd/domain/ledger/processes/syncmanager"
	"github.com/orosnet/orosd/domain/ledger/processes/transactionvalidator"
	"github.com/orosnet/orosd/domain/lrc"
	"github.com/orosnet/orosd/domain/mempool"
	"github.com/orosnet/orosd/domain/ssc"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Ledger is the entry point of the ledger core. Mutating operations
// are serialized internally, so a Ledger is safe for concurrent use.
type Ledger interface {
	model.HeaderClassifier
	model.SyncManager
	model.BlockProcessor
	model.BlockBuilder

	// AddTransaction verifies the given transaction against the
	// current UTXO set and admits it into the mempool, recording the
	// given arrival position.
	AddTransaction(tx *externalapi.DomainTransaction, arrival externalapi.EpochOrSlot) error

	// QueuePayloadData signs the given opaque payload data and queues
	// it for inclusion in the next locally built block.
	QueuePayloadData(data []byte) error

	// SubmitCertificate verifies the given delegation certificate and
	// queues it for inclusion in the next locally built block.
	SubmitCertificate(certificate *externalapi.DelegationCertificate) error

	// Tip returns the current chain tip hash.
	Tip() (*externalapi.DomainHash, error)

	// TipHeader returns the current chain tip header.
	TipHeader() (externalapi.BlockHeader, error)

	// Block returns the block with the given hash.
	Block(blockHash *externalapi.DomainHash) (externalapi.Block, error)

	// UTXOCommitment returns the current ECMH commitment over the
	// UTXO set.
	UTXOCommitment() (*externalapi.DomainHash, error)

	// SlotLeader returns the stakeholder scheduled to lead the given
	// slot, or a rule error wrapping ruleerrors.ErrUnknownLeaders
	// when the slot's epoch has no computed schedule yet.
	SlotLeader(slot externalapi.SlotID) (*externalapi.StakeholderID, error)
}

type ledger struct {
	// mtx is the exclusive tip token: every operation that may move
	// the tip holds it for its whole duration.
	mtx sync.Mutex

	databaseContext database.Database
	params          *chainparams.Params

	blockStore       model.BlockStore
	tipStore         model.TipStore
	mainChainStore   model.MainChainStore
	leaderStore      model.LeaderStore
	utxoStore        model.UTXOStore
	certificateStore model.CertificateStore

	leaderElectionManager model.LeaderElectionManager
	payloadManager        model.PayloadManager
	transactionValidator  model.TransactionValidator
	delegationManager     model.DelegationManager
	mempool               model.Mempool

	headerClassifier model.HeaderClassifier
	syncManager      model.SyncManager
	blockValidator   model.BlockValidator
	blockProcessor   model.BlockProcessor
	blockBuilder     model.BlockBuilder
}

// New instantiates a Ledger over the given database. keyPair may be
// nil for a non-staking node; such a node can still verify, apply and
// serve the chain but cannot build blocks. A fresh database is seeded
// with the network's hardcoded genesis state.
func New(params *chainparams.Params, databaseContext database.Database,
	keyPair *secp256k1.SchnorrKeyPair) (Ledger, error) {

	blockStore := blockstore.New()
	tipStore := tipstore.New()
	mainChainStore := mainchainstore.New()
	leaderStore := leaderstore.New()
	utxoStore := utxostore.New()
	certificateStore := certificatestore.New()

	leaderElectionManager := lrc.New(leaderStore, utxoStore, params.EpochSlotCount)
	payloadManager, err := ssc.New(keyPair)
	if err != nil {
		return nil, err
	}
	transactionValidator := transactionvalidator.New(utxoStore)
	delegationManager := delegation.New(certificateStore)
	mempoolInstance := mempool.New()

	blockValidator := blockvalidator.New(blockStore, tipStore, leaderElectionManager,
		payloadManager, transactionValidator, delegationManager, params.EpochSlotCount)
	headerClassifier := headerclassifier.New(databaseContext, blockStore, tipStore,
		mainChainStore, blockValidator, params.BlkSecurityParam)
	syncManager := syncmanager.New(databaseContext, blockStore, tipStore,
		mainChainStore, params.MaxHeadersPerMsg)
	blockProcessor := blockprocessor.New(databaseContext, blockStore, tipStore,
		mainChainStore, utxoStore, certificateStore, blockValidator, leaderElectionManager)
	blockBuilder := blockbuilder.New(databaseContext, blockStore, tipStore,
		blockValidator, blockProcessor, leaderElectionManager, payloadManager,
		delegationManager, mempoolInstance, keyPair, params.EpochSlotCount,
		params.SlotSecurityParam, params.MempoolTxResidencySlots)

	l := &ledger{
		databaseContext: databaseContext,
		params:          params,

		blockStore:       blockStore,
		tipStore:         tipStore,
		mainChainStore:   mainChainStore,
		leaderStore:      leaderStore,
		utxoStore:        utxoStore,
		certificateStore: certificateStore,

		leaderElectionManager: leaderElectionManager,
		payloadManager:        payloadManager,
		transactionValidator:  transactionValidator,
		delegationManager:     delegationManager,
		mempool:               mempoolInstance,

		headerClassifier: headerClassifier,
		syncManager:      syncManager,
		blockValidator:   blockValidator,
		blockProcessor:   blockProcessor,
		blockBuilder:     blockBuilder,
	}
	err = l.seedGenesisState()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// seedGenesisState initializes a fresh database with the hardcoded
// genesis block, its slot-leader schedule and the initial stake
// distribution, all in one database transaction. A database that
// already has a tip is left untouched.
func (l *ledger) seedGenesisState() error {
	hasTip, err := l.tipStore.HasTip(l.databaseContext)
	if err != nil {
		return err
	}
	if hasTip {
		return nil
	}

	dbTransaction, err := l.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTransaction.RollbackUnlessClosed()

	genesisBlund := &externalapi.Blund{
		Block: l.params.GenesisBlock,
		Undo:  externalapi.NewEmptyBlockUndo(),
	}
	err = l.blockStore.PutBlund(dbTransaction, l.params.GenesisHash, genesisBlund)
	if err != nil {
		return err
	}
	err = l.mainChainStore.Append(dbTransaction, l.params.GenesisHash)
	if err != nil {
		return err
	}
	err = l.tipStore.UpdateTip(dbTransaction, l.params.GenesisHash)
	if err != nil {
		return err
	}
	err = l.leaderStore.PutLeaders(dbTransaction,
		l.params.GenesisBlock.GenesisHeader.Epoch, l.params.GenesisBlock.Body.Leaders)
	if err != nil {
		return err
	}
	for _, pair := range l.params.InitialStakeDistribution {
		err = l.utxoStore.AddEntry(dbTransaction, &pair.Outpoint, &pair.Entry)
		if err != nil {
			return err
		}
	}
	err = dbTransaction.Commit()
	if err != nil {
		return err
	}
	log.Infof("seeded fresh %s database with genesis block %s and %d initial stake outputs",
		l.params.Name, l.params.GenesisHash, len(l.params.InitialStakeDistribution))
	return nil
}

func (l *ledger) ClassifyHeader(header externalapi.BlockHeader,
	currentSlot externalapi.SlotID) (*externalapi.HeaderClassification, error) {

	return l.headerClassifier.ClassifyHeader(header, currentSlot)
}

func (l *ledger) FindLCA(headers []externalapi.BlockHeader) (*externalapi.DomainHash, error) {
	return l.headerClassifier.FindLCA(headers)
}

func (l *ledger) ClassifyHeaders(headers []externalapi.BlockHeader) (
	*externalapi.ChainClassification, error) {

	return l.headerClassifier.ClassifyHeaders(headers)
}

func (l *ledger) GetHeadersRange(checkpoints []*externalapi.DomainHash,
	startHash *externalapi.DomainHash) ([]externalapi.BlockHeader, error) {

	return l.syncManager.GetHeadersRange(checkpoints, startHash)
}

func (l *ledger) CreateChainLocator(lowHash, highHash *externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	return l.syncManager.CreateChainLocator(lowHash, highHash)
}

func (l *ledger) GetHashesBetween(lowHash, highHash *externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	return l.syncManager.GetHashesBetween(lowHash, highHash)
}

func (l *ledger) VerifyAndApplyBlocks(currentSlot externalapi.SlotID, rollbackOnFailure bool,
	blocks []externalapi.Block) (*externalapi.DomainHash, error) {

	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.blockProcessor.VerifyAndApplyBlocks(currentSlot, rollbackOnFailure, blocks)
}

func (l *ledger) ApplyBlocks(computeLeaders bool, blunds []*externalapi.Blund) (
	*externalapi.DomainHash, error) {

	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.blockProcessor.ApplyBlocks(computeLeaders, blunds)
}

func (l *ledger) RollbackBlocks(blunds []*externalapi.Blund) (*externalapi.DomainHash, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.blockProcessor.RollbackBlocks(blunds)
}

func (l *ledger) ApplyWithRollback(currentSlot externalapi.SlotID, toRollback []*externalapi.Blund,
	toApply []externalapi.Block) (*externalapi.DomainHash, error) {

	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.blockProcessor.ApplyWithRollback(currentSlot, toRollback, toApply)
}

func (l *ledger) CreateGenesisBlock(epoch externalapi.EpochIndex) (
	*externalapi.GenesisBlock, *externalapi.DomainHash, error) {

	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.blockBuilder.CreateGenesisBlock(epoch)
}

func (l *ledger) CreateMainBlock(slot externalapi.SlotID) (*externalapi.MainBlock, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.blockBuilder.CreateMainBlock(slot)
}

func (l *ledger) AddTransaction(tx *externalapi.DomainTransaction,
	arrival externalapi.EpochOrSlot) error {

	undo, err := l.transactionValidator.ValidateTransaction(l.databaseContext, tx)
	if err != nil {
		return err
	}
	return l.mempool.Add(&model.MempoolTransaction{
		Transaction: tx,
		Undo:        undo,
		Arrival:     arrival,
	})
}

func (l *ledger) QueuePayloadData(data []byte) error {
	return l.payloadManager.QueueData(data)
}

func (l *ledger) SubmitCertificate(certificate *externalapi.DelegationCertificate) error {
	return l.delegationManager.AddPendingCertificate(certificate)
}

func (l *ledger) Tip() (*externalapi.DomainHash, error) {
	return l.tipStore.Tip(l.databaseContext)
}

func (l *ledger) TipHeader() (externalapi.BlockHeader, error) {
	tipHash, err := l.tipStore.Tip(l.databaseContext)
	if err != nil {
		return nil, err
	}
	return l.blockStore.Header(l.databaseContext, tipHash)
}

func (l *ledger) Block(blockHash *externalapi.DomainHash) (externalapi.Block, error) {
	return l.blockStore.Block(l.databaseContext, blockHash)
}

func (l *ledger) UTXOCommitment() (*externalapi.DomainHash, error) {
	return l.utxoStore.Commitment(l.databaseContext)
}

func (l *ledger) SlotLeader(slot externalapi.SlotID) (*externalapi.StakeholderID, error) {
	leaders, err := l.leaderElectionManager.Leaders(l.databaseContext, slot.Epoch)
	if err != nil {
		return nil, err
	}
	if uint64(slot.Slot) >= uint64(len(leaders)) {
		return nil, errors.Errorf("the schedule of epoch %d has %d slots, cannot serve slot %d",
			slot.Epoch, len(leaders), slot.Slot)
	}
	leader := leaders[slot.Slot]
	return &leader, nil
}
