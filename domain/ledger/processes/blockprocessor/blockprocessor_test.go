package blockprocessor_test

import (
	"testing"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/testutils"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/pkg/errors"
)

func slot(epoch externalapi.EpochIndex, offset uint32) externalapi.SlotID {
	return externalapi.SlotID{Epoch: epoch, Slot: offset}
}

func TestVerifyAndApplyBlocks(t *testing.T) {
	c := testutils.NewContext(t)

	block := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	newTip, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{block})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}

	blockHash := consensushashing.BlockHash(block)
	if !newTip.Equal(blockHash) {
		t.Fatalf("VerifyAndApplyBlocks moved the tip to %s, expected %s", newTip, blockHash)
	}
	tipHash, _ := c.Tip(t)
	if !tipHash.Equal(blockHash) {
		t.Fatalf("the stored tip is %s, expected %s", tipHash, blockHash)
	}
	hasBlock, err := c.BlockStore.HasBlock(c.DatabaseContext, blockHash)
	if err != nil {
		t.Fatalf("HasBlock: %+v", err)
	}
	if !hasBlock {
		t.Fatal("the applied block is not in the block store")
	}
}

func TestApplyAndRollbackRestoreUTXOCommitment(t *testing.T) {
	c := testutils.NewContext(t)
	initialCommitment := c.UTXOCommitment(t)

	transfer := c.SignedTransfer(t, c.StakeOutpoint, testutils.StakeAmount,
		testutils.OtherStakeholder("recipient"))
	block := c.BuildMainBlockOnTip(t, slot(0, 1),
		[]*externalapi.DomainTransaction{transfer}, nil)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{block})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}
	if c.UTXOCommitment(t).Equal(initialCommitment) {
		t.Fatal("applying a transfer did not change the UTXO commitment")
	}

	blockHash := consensushashing.BlockHash(block)
	blund, err := c.BlockStore.Blund(c.DatabaseContext, blockHash)
	if err != nil {
		t.Fatalf("Blund: %+v", err)
	}
	newTip, err := c.BlockProcessor.RollbackBlocks([]*externalapi.Blund{blund})
	if err != nil {
		t.Fatalf("RollbackBlocks: %+v", err)
	}
	if !newTip.Equal(c.GenesisHash) {
		t.Fatalf("RollbackBlocks moved the tip to %s, expected the genesis %s", newTip, c.GenesisHash)
	}
	if !c.UTXOCommitment(t).Equal(initialCommitment) {
		t.Fatal("rolling the block back did not restore the UTXO commitment")
	}

	hasBlock, err := c.BlockStore.HasBlock(c.DatabaseContext, blockHash)
	if err != nil {
		t.Fatalf("HasBlock: %+v", err)
	}
	if hasBlock {
		t.Fatal("the rolled-back block is still in the block store")
	}
}

func TestVerifyAndApplyRejectsDetachedParent(t *testing.T) {
	c := testutils.NewContext(t)

	detachedParent := externalapi.NewZeroHash()
	_, tipHeader := c.Tip(t)
	block := c.BuildMainBlock(t, detachedParent, tipHeader, slot(0, 1), nil, nil)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{block})
	var tipMismatch ruleerrors.ErrTipMismatch
	if !errors.As(err, &tipMismatch) {
		t.Fatalf("VerifyAndApplyBlocks returned %+v, expected a tip mismatch", err)
	}
}

func TestVerifyAndApplyRollsBackOnFailure(t *testing.T) {
	c := testutils.NewContext(t)
	initialCommitment := c.UTXOCommitment(t)

	// The valid block and the out-of-order genesis block land in
	// separate runs, so the first run is applied before the second
	// one fails.
	_, tipHeader := c.Tip(t)
	valid := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	validHash := consensushashing.BlockHash(valid)
	badGenesis := &externalapi.GenesisBlock{
		GenesisHeader: &externalapi.GenesisBlockHeader{
			Parent:    *validHash,
			Epoch:     5,
			ChainDiff: tipHeader.Difficulty() + 1,
		},
		Body: &externalapi.GenesisBlockBody{},
	}

	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(5, 0), true,
		[]externalapi.Block{valid, badGenesis})
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("VerifyAndApplyBlocks returned %+v, expected a rule error", err)
	}
	tipHash, _ := c.Tip(t)
	if !tipHash.Equal(c.GenesisHash) {
		t.Fatalf("the tip is %s after a rolled-back failure, expected the genesis %s",
			tipHash, c.GenesisHash)
	}
	if !c.UTXOCommitment(t).Equal(initialCommitment) {
		t.Fatal("the UTXO commitment changed across a rolled-back failure")
	}
}

func TestVerifyAndApplyKeepsVerifiedPrefix(t *testing.T) {
	c := testutils.NewContext(t)

	valid := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	validHash := consensushashing.BlockHash(valid)
	validHeader := valid.Header()
	invalid := c.BuildMainBlock(t, validHash, validHeader, slot(0, 2), nil, nil)
	invalid.MainHeader.Signature[0] ^= 0xff

	newTip, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), false,
		[]externalapi.Block{valid, invalid})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}
	if !newTip.Equal(validHash) {
		t.Fatalf("the tip is %s after a partial apply, expected the valid prefix's %s",
			newTip, validHash)
	}
}

func TestRollbackBlocksRejectsNonTipBlund(t *testing.T) {
	c := testutils.NewContext(t)

	genesisBlund, err := c.BlockStore.Blund(c.DatabaseContext, c.GenesisHash)
	if err != nil {
		t.Fatalf("Blund: %+v", err)
	}
	block := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	_, err = c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{block})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}

	_, err = c.BlockProcessor.RollbackBlocks([]*externalapi.Blund{genesisBlund})
	var tipMismatch ruleerrors.ErrTipMismatch
	if !errors.As(err, &tipMismatch) {
		t.Fatalf("RollbackBlocks returned %+v, expected a tip mismatch", err)
	}
}

func TestApplyWithRollbackSwitchesForks(t *testing.T) {
	c := testutils.NewContext(t)

	_, genesisHeader := c.Tip(t)
	original := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{original})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}
	originalBlund, err := c.BlockStore.Blund(c.DatabaseContext,
		consensushashing.BlockHash(original))
	if err != nil {
		t.Fatalf("Blund: %+v", err)
	}

	alternative := c.BuildMainBlock(t, c.GenesisHash, genesisHeader, slot(0, 2), nil, nil)
	newTip, err := c.BlockProcessor.ApplyWithRollback(slot(0, 5),
		[]*externalapi.Blund{originalBlund}, []externalapi.Block{alternative})
	if err != nil {
		t.Fatalf("ApplyWithRollback: %+v", err)
	}
	alternativeHash := consensushashing.BlockHash(alternative)
	if !newTip.Equal(alternativeHash) {
		t.Fatalf("ApplyWithRollback moved the tip to %s, expected %s", newTip, alternativeHash)
	}
}

func TestApplyWithRollbackRestoresOnFailure(t *testing.T) {
	c := testutils.NewContext(t)

	_, genesisHeader := c.Tip(t)
	original := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	originalHash := consensushashing.BlockHash(original)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{original})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}
	originalBlund, err := c.BlockStore.Blund(c.DatabaseContext, originalHash)
	if err != nil {
		t.Fatalf("Blund: %+v", err)
	}

	invalid := c.BuildMainBlock(t, c.GenesisHash, genesisHeader, slot(0, 2), nil, nil)
	invalid.MainHeader.Signature[0] ^= 0xff
	_, err = c.BlockProcessor.ApplyWithRollback(slot(0, 5),
		[]*externalapi.Blund{originalBlund}, []externalapi.Block{invalid})
	if !errors.Is(err, ruleerrors.ErrBadSignature) {
		t.Fatalf("ApplyWithRollback returned %+v, expected ErrBadSignature", err)
	}
	tipHash, _ := c.Tip(t)
	if !tipHash.Equal(originalHash) {
		t.Fatalf("the tip is %s after a failed switch, expected the restored %s",
			tipHash, originalHash)
	}
}

func TestEpochCrossing(t *testing.T) {
	c := testutils.NewContext(t)

	// Walk the tip into the closing stretch of epoch 0 so that the
	// next epoch becomes eligible.
	closing := c.BuildMainBlockOnTip(t, slot(0, 7), nil, nil)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 8), true,
		[]externalapi.Block{closing})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}

	genesisBlock, newTip, err := c.BlockBuilder.CreateGenesisBlock(1)
	if err != nil {
		t.Fatalf("CreateGenesisBlock: %+v", err)
	}
	if genesisBlock == nil {
		t.Fatal("CreateGenesisBlock skipped an eligible epoch")
	}
	if genesisBlock.GenesisHeader.Epoch != 1 {
		t.Fatalf("the genesis block opens epoch %d, expected 1", genesisBlock.GenesisHeader.Epoch)
	}
	if uint32(len(genesisBlock.Body.Leaders)) != c.Params.EpochSlotCount {
		t.Fatalf("the genesis block carries %d leaders, expected %d",
			len(genesisBlock.Body.Leaders), c.Params.EpochSlotCount)
	}
	// The harness stakeholder owns the entire stake, so it must lead
	// every slot of the new epoch.
	for i, leader := range genesisBlock.Body.Leaders {
		if !leader.Equal(&c.Stakeholder) {
			t.Fatalf("slot %d of epoch 1 is led by %s, expected the sole stakeholder", i, leader)
		}
	}
	tipHash, _ := c.Tip(t)
	if !tipHash.Equal(newTip) {
		t.Fatalf("the stored tip is %s, CreateGenesisBlock reported %s", tipHash, newTip)
	}

	// A main block in the new epoch verifies against the freshly
	// elected schedule.
	mainBlock := c.BuildMainBlockOnTip(t, slot(1, 0), nil, nil)
	_, err = c.BlockProcessor.VerifyAndApplyBlocks(slot(1, 5), true,
		[]externalapi.Block{mainBlock})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks across the epoch boundary: %+v", err)
	}
}

func TestCreateGenesisBlockSkipsIneligibleEpoch(t *testing.T) {
	c := testutils.NewContext(t)

	genesisBlock, tipHash, err := c.BlockBuilder.CreateGenesisBlock(1)
	if err != nil {
		t.Fatalf("CreateGenesisBlock: %+v", err)
	}
	if genesisBlock != nil {
		t.Fatal("CreateGenesisBlock built a block while the tip is far from the boundary")
	}
	if !tipHash.Equal(c.GenesisHash) {
		t.Fatalf("CreateGenesisBlock reported tip %s, expected the unchanged %s",
			tipHash, c.GenesisHash)
	}
}

func TestRollbackDiscardsEpochLeaders(t *testing.T) {
	c := testutils.NewContext(t)

	closing := c.BuildMainBlockOnTip(t, slot(0, 7), nil, nil)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 8), true,
		[]externalapi.Block{closing})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}
	genesisBlock, newTip, err := c.BlockBuilder.CreateGenesisBlock(1)
	if err != nil {
		t.Fatalf("CreateGenesisBlock: %+v", err)
	}
	if genesisBlock == nil {
		t.Fatal("CreateGenesisBlock skipped an eligible epoch")
	}
	_, err = c.LeaderElectionManager.Leaders(c.DatabaseContext, 1)
	if err != nil {
		t.Fatalf("Leaders after opening epoch 1: %+v", err)
	}

	// Reverting the genesis block must take the epoch's schedule with
	// it: a fork reopening the epoch derives its own schedule from its
	// own chain state.
	blund, err := c.BlockStore.Blund(c.DatabaseContext, newTip)
	if err != nil {
		t.Fatalf("Blund: %+v", err)
	}
	_, err = c.BlockProcessor.RollbackBlocks([]*externalapi.Blund{blund})
	if err != nil {
		t.Fatalf("RollbackBlocks: %+v", err)
	}
	var unknownLeaders ruleerrors.ErrUnknownLeaders
	_, err = c.LeaderElectionManager.Leaders(c.DatabaseContext, 1)
	if !errors.As(err, &unknownLeaders) {
		t.Fatalf("Leaders returned %+v after the rollback, expected ErrUnknownLeaders", err)
	}
}
