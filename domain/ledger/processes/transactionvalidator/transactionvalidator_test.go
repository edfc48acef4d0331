package transactionvalidator_test

import (
	"testing"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/testutils"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/pkg/errors"
)

func slot(epoch externalapi.EpochIndex, offset uint32) externalapi.SlotID {
	return externalapi.SlotID{Epoch: epoch, Slot: offset}
}

// doubleSpendTransaction spends the harness stake outpoint through two
// inputs of the same transaction, outputting twice its value.
func doubleSpendTransaction(t *testing.T, c *testutils.Context) *externalapi.DomainTransaction {
	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.DomainTransactionInput{
			{PreviousOutpoint: c.StakeOutpoint},
			{PreviousOutpoint: c.StakeOutpoint},
		},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 2 * testutils.StakeAmount, Recipient: testutils.OtherStakeholder("recipient")},
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
	for _, input := range tx.Inputs {
		input.Signature = append(append([]byte{}, c.PublicKey...), signature...)
	}
	return tx
}

func TestValidateTransactionRejectsDuplicateOutpoint(t *testing.T) {
	c := testutils.NewContext(t)

	_, err := c.TransactionValidator.ValidateTransaction(c.DatabaseContext,
		doubleSpendTransaction(t, c))
	if !errors.Is(err, ruleerrors.ErrMissingUTXOEntry) {
		t.Fatalf("ValidateTransaction returned %+v, "+
			"expected ErrMissingUTXOEntry for a duplicated outpoint", err)
	}
}

func TestVerifyBlocksRejectsDuplicateOutpoint(t *testing.T) {
	c := testutils.NewContext(t)
	tipHash, _ := c.Tip(t)

	block := c.BuildMainBlockOnTip(t, slot(0, 1),
		[]*externalapi.DomainTransaction{doubleSpendTransaction(t, c)}, nil)
	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{block})
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("VerifyAndApplyBlocks returned %+v, "+
			"expected a rule error for a block doubling an outpoint's value", err)
	}
	unchangedTip, _ := c.Tip(t)
	if !unchangedTip.Equal(tipHash) {
		t.Fatal("a rejected block moved the tip")
	}
}

func TestVerifyBlockTransactionsSpendsAcrossSequence(t *testing.T) {
	c := testutils.NewContext(t)

	// The second block's transaction consumes an output the first
	// block's transaction created.
	first := c.SignedTransfer(t, c.StakeOutpoint, testutils.StakeAmount, c.Stakeholder)
	firstID := consensushashing.TransactionID(first)
	second := c.SignedTransfer(t,
		externalapi.DomainOutpoint{TransactionID: *firstID, Index: 0},
		testutils.StakeAmount, testutils.OtherStakeholder("recipient"))

	blockA := c.BuildMainBlockOnTip(t, slot(0, 1),
		[]*externalapi.DomainTransaction{first}, nil)
	blockB := c.BuildMainBlock(t, consensushashing.BlockHash(blockA), blockA.Header(),
		slot(0, 2), []*externalapi.DomainTransaction{second}, nil)

	_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, 5), true,
		[]externalapi.Block{blockA, blockB})
	if err != nil {
		t.Fatalf("VerifyAndApplyBlocks: %+v", err)
	}
}
