// Package testutils wires a throwaway ledger core for tests: real
// stores over a temporary LevelDB, a freshly generated staking keypair
// that leads every slot of epoch 0 and owns the whole seeded stake.
package testutils

import (
	"testing"

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
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/orosnet/orosd/domain/lrc"
	"github.com/orosnet/orosd/domain/mempool"
	"github.com/orosnet/orosd/domain/ssc"
	"github.com/orosnet/orosd/infrastructure/db/database/ldb"
	"github.com/orosnet/orosd/version"
)

// StakeAmount is the value of the single stake output the harness
// seeds for the test stakeholder.
const StakeAmount = 10000

// Context is a fully wired ledger core over a temporary database.
type Context struct {
	DatabaseContext *ldb.LevelDB
	Params          *chainparams.Params

	BlockStore       model.BlockStore
	TipStore         model.TipStore
	MainChainStore   model.MainChainStore
	LeaderStore      model.LeaderStore
	UTXOStore        model.UTXOStore
	CertificateStore model.CertificateStore

	LeaderElectionManager model.LeaderElectionManager
	PayloadManager        model.PayloadManager
	TransactionValidator  model.TransactionValidator
	DelegationManager     model.DelegationManager
	Mempool               model.Mempool

	BlockValidator   model.BlockValidator
	HeaderClassifier model.HeaderClassifier
	SyncManager      model.SyncManager
	BlockProcessor   model.BlockProcessor
	BlockBuilder     model.BlockBuilder

	KeyPair     *secp256k1.SchnorrKeyPair
	PublicKey   []byte
	Stakeholder externalapi.StakeholderID

	GenesisHash   *externalapi.DomainHash
	StakeOutpoint externalapi.DomainOutpoint
}

// NewContext assembles a ledger core over a fresh database seeded
// with the simnet genesis block, an epoch-0 schedule that assigns
// every slot to the harness keypair, and a single stake output the
// keypair owns. The database is removed when the test ends.
func NewContext(t *testing.T) *Context {
	databaseContext, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	t.Cleanup(func() {
		err := databaseContext.Close()
		if err != nil {
			t.Errorf("closing the test database: %+v", err)
		}
	})

	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	publicKey, err := blocksigning.SerializePublicKey(keyPair)
	if err != nil {
		t.Fatalf("SerializePublicKey: %+v", err)
	}
	stakeholder := *blocksigning.StakeholderIDFromPublicKey(publicKey)

	params := chainparams.SimnetParams

	blockStore := blockstore.New()
	tipStore := tipstore.New()
	mainChainStore := mainchainstore.New()
	leaderStore := leaderstore.New()
	utxoStore := utxostore.New()
	certificateStore := certificatestore.New()

	leaderElectionManager := lrc.New(leaderStore, utxoStore, params.EpochSlotCount)
	payloadManager, err := ssc.New(keyPair)
	if err != nil {
		t.Fatalf("ssc.New: %+v", err)
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

	c := &Context{
		DatabaseContext: databaseContext,
		Params:          &params,

		BlockStore:       blockStore,
		TipStore:         tipStore,
		MainChainStore:   mainChainStore,
		LeaderStore:      leaderStore,
		UTXOStore:        utxoStore,
		CertificateStore: certificateStore,

		LeaderElectionManager: leaderElectionManager,
		PayloadManager:        payloadManager,
		TransactionValidator:  transactionValidator,
		DelegationManager:     delegationManager,
		Mempool:               mempoolInstance,

		BlockValidator:   blockValidator,
		HeaderClassifier: headerClassifier,
		SyncManager:      syncManager,
		BlockProcessor:   blockProcessor,
		BlockBuilder:     blockBuilder,

		KeyPair:     keyPair,
		PublicKey:   publicKey,
		Stakeholder: stakeholder,

		GenesisHash: params.GenesisHash,
	}
	c.seed(t)
	return c
}

func (c *Context) seed(t *testing.T) {
	genesisBlund := &externalapi.Blund{
		Block: c.Params.GenesisBlock,
		Undo:  externalapi.NewEmptyBlockUndo(),
	}
	err := c.BlockStore.PutBlund(c.DatabaseContext, c.GenesisHash, genesisBlund)
	if err != nil {
		t.Fatalf("PutBlund: %+v", err)
	}
	err = c.MainChainStore.Append(c.DatabaseContext, c.GenesisHash)
	if err != nil {
		t.Fatalf("Append: %+v", err)
	}
	err = c.TipStore.UpdateTip(c.DatabaseContext, c.GenesisHash)
	if err != nil {
		t.Fatalf("UpdateTip: %+v", err)
	}

	// The test stakeholder leads every slot of epoch 0.
	leaders := make(externalapi.SlotLeaders, c.Params.EpochSlotCount)
	for i := range leaders {
		leaders[i] = c.Stakeholder
	}
	err = c.LeaderStore.PutLeaders(c.DatabaseContext, 0, leaders)
	if err != nil {
		t.Fatalf("PutLeaders: %+v", err)
	}

	writer := hashes.NewTransactionIDWriter()
	writer.InfallibleWrite([]byte("harness-stake"))
	c.StakeOutpoint = externalapi.DomainOutpoint{
		TransactionID: *externalapi.NewDomainTransactionIDFromByteArray(writer.Finalize().ByteArray()),
		Index:         0,
	}
	err = c.UTXOStore.AddEntry(c.DatabaseContext, &c.StakeOutpoint, &externalapi.UTXOEntry{
		Amount:    StakeAmount,
		Recipient: c.Stakeholder,
	})
	if err != nil {
		t.Fatalf("AddEntry: %+v", err)
	}
}

// Tip returns the current tip hash and header.
func (c *Context) Tip(t *testing.T) (*externalapi.DomainHash, externalapi.BlockHeader) {
	tipHash, err := c.TipStore.Tip(c.DatabaseContext)
	if err != nil {
		t.Fatalf("Tip: %+v", err)
	}
	tipHeader, err := c.BlockStore.Header(c.DatabaseContext, tipHash)
	if err != nil {
		t.Fatalf("Header: %+v", err)
	}
	return tipHash, tipHeader
}

// BuildMainBlock constructs and signs a main block for the given slot
// on top of the given parent, without applying it.
func (c *Context) BuildMainBlock(t *testing.T, parentHash *externalapi.DomainHash,
	parentHeader externalapi.BlockHeader, slot externalapi.SlotID,
	transactions []*externalapi.DomainTransaction,
	certificates []*externalapi.DelegationCertificate) *externalapi.MainBlock {

	body := &externalapi.MainBlockBody{
		Transactions: transactions,
		Payload:      &externalapi.ConsensusPayload{},
		Certificates: certificates,
	}
	header := &externalapi.MainBlockHeader{
		Parent:          *parentHash,
		Slot:            slot,
		ChainDiff:       parentHeader.Difficulty() + 1,
		ProtocolVersion: 1,
		SoftwareVersion: version.Version(),
		BodyCommitment:  *consensushashing.MainBodyHash(body),
		Leader:          c.Stakeholder,
		LeaderPublicKey: c.PublicKey,
	}
	signature, err := blocksigning.SignHash(c.KeyPair, consensushashing.SigningHash(header))
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	header.Signature = signature
	return &externalapi.MainBlock{MainHeader: header, Body: body}
}

// BuildMainBlockOnTip constructs and signs a main block for the given
// slot on top of the current tip.
func (c *Context) BuildMainBlockOnTip(t *testing.T, slot externalapi.SlotID,
	transactions []*externalapi.DomainTransaction,
	certificates []*externalapi.DelegationCertificate) *externalapi.MainBlock {

	tipHash, tipHeader := c.Tip(t)
	return c.BuildMainBlock(t, tipHash, tipHeader, slot, transactions, certificates)
}

// SignedTransfer builds a transaction spending the given outpoint in
// full, signed by the harness keypair.
func (c *Context) SignedTransfer(t *testing.T, outpoint externalapi.DomainOutpoint,
	amount uint64, recipient externalapi.StakeholderID) *externalapi.DomainTransaction {

	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.DomainTransactionInput{
			{PreviousOutpoint: outpoint},
		},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: amount, Recipient: recipient},
		},
	}
	txID := consensushashing.TransactionID(tx)
	signingHash, err := externalapi.NewDomainHashFromByteSlice(txID.ByteSlice())
	if err != nil {
		t.Fatalf("NewDomainHashFromByteSlice: %+v", err)
	}
	signature, err := blocksigning.SignHash(c.KeyPair, signingHash)
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	tx.Inputs[0].Signature = append(append([]byte{}, c.PublicKey...), signature...)
	return tx
}

// UTXOCommitment returns the current UTXO set commitment.
func (c *Context) UTXOCommitment(t *testing.T) *externalapi.DomainHash {
	commitment, err := c.UTXOStore.Commitment(c.DatabaseContext)
	if err != nil {
		t.Fatalf("Commitment: %+v", err)
	}
	return commitment
}

// OtherStakeholder derives a stakeholder ID that is not the harness
// stakeholder, for use as a transfer recipient.
func OtherStakeholder(tag string) externalapi.StakeholderID {
	writer := hashes.NewStakeholderIDWriter()
	writer.InfallibleWrite([]byte(tag))
	return *externalapi.NewStakeholderIDFromByteArray(writer.Finalize().ByteArray())
}
