package headerclassifier_test

import (
	"testing"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/testutils"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
)

func slot(epoch externalapi.EpochIndex, offset uint32) externalapi.SlotID {
	return externalapi.SlotID{Epoch: epoch, Slot: offset}
}

// applyChain builds and applies a chain of empty main blocks at the
// given slot offsets of epoch 0 and returns their headers oldest-first.
func applyChain(t *testing.T, c *testutils.Context, offsets ...uint32) []*externalapi.MainBlockHeader {
	headers := make([]*externalapi.MainBlockHeader, 0, len(offsets))
	for _, offset := range offsets {
		block := c.BuildMainBlockOnTip(t, slot(0, offset), nil, nil)
		_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot(0, offset), true,
			[]externalapi.Block{block})
		if err != nil {
			t.Fatalf("VerifyAndApplyBlocks: %+v", err)
		}
		headers = append(headers, block.MainHeader)
	}
	return headers
}

func TestClassifyHeaderContinues(t *testing.T) {
	c := testutils.NewContext(t)

	block := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeader(block.MainHeader, slot(0, 1))
	if err != nil {
		t.Fatalf("ClassifyHeader: %+v", err)
	}
	if classification.Class != externalapi.HeaderContinues {
		t.Fatalf("a header continuing the tip classified as %s: %s",
			classification.Class, classification.Reason)
	}
}

func TestClassifyHeaderRejectsWrongSlot(t *testing.T) {
	c := testutils.NewContext(t)

	block := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeader(block.MainHeader, slot(0, 2))
	if err != nil {
		t.Fatalf("ClassifyHeader: %+v", err)
	}
	if classification.Class != externalapi.HeaderUseless {
		t.Fatalf("a header for a past slot classified as %s", classification.Class)
	}
}

func TestClassifyHeaderRejectsGenesisHeaders(t *testing.T) {
	c := testutils.NewContext(t)

	genesisHeader, err := c.BlockStore.Header(c.DatabaseContext, c.GenesisHash)
	if err != nil {
		t.Fatalf("Header: %+v", err)
	}
	classification, err := c.HeaderClassifier.ClassifyHeader(genesisHeader, slot(0, 1))
	if err != nil {
		t.Fatalf("ClassifyHeader: %+v", err)
	}
	if classification.Class != externalapi.HeaderUseless {
		t.Fatalf("a relayed genesis header classified as %s", classification.Class)
	}
}

func TestClassifyHeaderInvalid(t *testing.T) {
	c := testutils.NewContext(t)

	block := c.BuildMainBlockOnTip(t, slot(0, 1), nil, nil)
	block.MainHeader.ChainDiff += 7
	classification, err := c.HeaderClassifier.ClassifyHeader(block.MainHeader, slot(0, 1))
	if err != nil {
		t.Fatalf("ClassifyHeader: %+v", err)
	}
	if classification.Class != externalapi.HeaderInvalid {
		t.Fatalf("a header with a wrong difficulty classified as %s", classification.Class)
	}
	if classification.Reason == "" {
		t.Fatal("an invalid classification carries no reason")
	}
}

func TestClassifyHeaderAlternative(t *testing.T) {
	c := testutils.NewContext(t)
	applyChain(t, c, 1)

	// A heavier header hanging off an unknown parent is worth a
	// chain-range request.
	_, tipHeader := c.Tip(t)
	unknownParent := externalapi.NewZeroHash()
	block := c.BuildMainBlock(t, unknownParent, tipHeader, slot(0, 2), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeader(block.MainHeader, slot(0, 2))
	if err != nil {
		t.Fatalf("ClassifyHeader: %+v", err)
	}
	if classification.Class != externalapi.HeaderAlternative {
		t.Fatalf("a heavier detached header classified as %s: %s",
			classification.Class, classification.Reason)
	}
}

func TestClassifyHeaderNotHeavierIsUseless(t *testing.T) {
	c := testutils.NewContext(t)
	applyChain(t, c, 1, 2)

	genesisHeader, err := c.BlockStore.Header(c.DatabaseContext, c.GenesisHash)
	if err != nil {
		t.Fatalf("Header: %+v", err)
	}
	unknownParent := externalapi.NewZeroHash()
	block := c.BuildMainBlock(t, unknownParent, genesisHeader, slot(0, 3), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeader(block.MainHeader, slot(0, 3))
	if err != nil {
		t.Fatalf("ClassifyHeader: %+v", err)
	}
	if classification.Class != externalapi.HeaderUseless {
		t.Fatalf("a detached header lighter than the tip classified as %s", classification.Class)
	}
}

func TestClassifyHeadersValidFork(t *testing.T) {
	c := testutils.NewContext(t)
	applied := applyChain(t, c, 1)
	appliedHash := consensushashing.HeaderHash(applied[0])

	fork := c.BuildMainBlock(t, appliedHash, applied[0], slot(0, 2), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeaders(
		[]externalapi.BlockHeader{fork.MainHeader, applied[0]})
	if err != nil {
		t.Fatalf("ClassifyHeaders: %+v", err)
	}
	if classification.Class != externalapi.ChainValid {
		t.Fatalf("a viable candidate chain classified as %s: %s",
			classification.Class, classification.Reason)
	}
	forkHash := consensushashing.HeaderHash(fork.MainHeader)
	if !classification.LCAChild.Equal(forkHash) {
		t.Fatalf("the chain's first new block is %s, expected %s",
			classification.LCAChild, forkHash)
	}
}

func TestClassifyHeadersRejectsBrokenLink(t *testing.T) {
	c := testutils.NewContext(t)
	applied := applyChain(t, c, 1)

	_, tipHeader := c.Tip(t)
	detached := c.BuildMainBlock(t, externalapi.NewZeroHash(), tipHeader, slot(0, 2), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeaders(
		[]externalapi.BlockHeader{detached.MainHeader, applied[0]})
	if err != nil {
		t.Fatalf("ClassifyHeaders: %+v", err)
	}
	if classification.Class != externalapi.ChainInvalid {
		t.Fatalf("a chain with a broken link classified as %s", classification.Class)
	}
}

func TestClassifyHeadersRejectsUnknownOldest(t *testing.T) {
	c := testutils.NewContext(t)

	_, tipHeader := c.Tip(t)
	block := c.BuildMainBlock(t, c.GenesisHash, tipHeader, slot(0, 1), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeaders(
		[]externalapi.BlockHeader{block.MainHeader})
	if err != nil {
		t.Fatalf("ClassifyHeaders: %+v", err)
	}
	if classification.Class != externalapi.ChainInvalid {
		t.Fatalf("a chain anchored on an unknown header classified as %s", classification.Class)
	}
}

func TestClassifyHeadersAlreadyTipIsUseless(t *testing.T) {
	c := testutils.NewContext(t)
	applied := applyChain(t, c, 1)

	classification, err := c.HeaderClassifier.ClassifyHeaders(
		[]externalapi.BlockHeader{applied[0]})
	if err != nil {
		t.Fatalf("ClassifyHeaders: %+v", err)
	}
	if classification.Class != externalapi.ChainUseless {
		t.Fatalf("a chain ending at the tip classified as %s", classification.Class)
	}
}

func TestClassifyHeadersDeepForkIsUseless(t *testing.T) {
	c := testutils.NewContext(t)
	applyChain(t, c, 1, 2, 3, 4, 5, 6)

	// The fork point is six blocks below the tip, deeper than the
	// security bound.
	genesisHeader, err := c.BlockStore.Header(c.DatabaseContext, c.GenesisHash)
	if err != nil {
		t.Fatalf("Header: %+v", err)
	}
	fork := c.BuildMainBlock(t, c.GenesisHash, genesisHeader, slot(0, 7), nil, nil)
	classification, err := c.HeaderClassifier.ClassifyHeaders(
		[]externalapi.BlockHeader{fork.MainHeader, genesisHeader})
	if err != nil {
		t.Fatalf("ClassifyHeaders: %+v", err)
	}
	if classification.Class != externalapi.ChainUseless {
		t.Fatalf("a chain forking below the security bound classified as %s: %s",
			classification.Class, classification.Reason)
	}
}

func TestClassifyHeadersInsideMainChainIsUseless(t *testing.T) {
	c := testutils.NewContext(t)
	applied := applyChain(t, c, 1, 2)

	classification, err := c.HeaderClassifier.ClassifyHeaders(
		[]externalapi.BlockHeader{applied[0]})
	if err != nil {
		t.Fatalf("ClassifyHeaders: %+v", err)
	}
	if classification.Class != externalapi.ChainUseless {
		t.Fatalf("a chain lying inside the main chain classified as %s", classification.Class)
	}
}
