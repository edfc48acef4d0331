package syncmanager_test

import (
	"testing"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/processes/syncmanager"
	"github.com/orosnet/orosd/domain/ledger/testutils"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
)

// buildChain applies the given number of empty main blocks in epoch 0
// and returns the main-chain hashes by height, the genesis included.
func buildChain(t *testing.T, c *testutils.Context, length uint32) []*externalapi.DomainHash {
	hashes := []*externalapi.DomainHash{c.GenesisHash}
	for offset := uint32(1); offset <= length; offset++ {
		slot := externalapi.SlotID{Epoch: 0, Slot: offset}
		block := c.BuildMainBlockOnTip(t, slot, nil, nil)
		_, err := c.BlockProcessor.VerifyAndApplyBlocks(slot, true,
			[]externalapi.Block{block})
		if err != nil {
			t.Fatalf("VerifyAndApplyBlocks: %+v", err)
		}
		hashes = append(hashes, consensushashing.BlockHash(block))
	}
	return hashes
}

// boundedSyncManager wires a second sync manager over the same stores
// with a small per-message bound, so bound handling is testable on a
// short chain.
func boundedSyncManager(c *testutils.Context, maxHeadersPerMsg int) model.SyncManager {
	return syncmanager.New(c.DatabaseContext, c.BlockStore, c.TipStore,
		c.MainChainStore, maxHeadersPerMsg)
}

func checkHashes(t *testing.T, got, expected []*externalapi.DomainHash) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("got %d hashes, expected %d", len(got), len(expected))
	}
	for i, hash := range got {
		if !hash.Equal(expected[i]) {
			t.Fatalf("hash %d is %s, expected %s", i, hash, expected[i])
		}
	}
}

func checkHeaderHashes(t *testing.T, got []externalapi.BlockHeader,
	expected []*externalapi.DomainHash) {

	t.Helper()
	hashes := make([]*externalapi.DomainHash, len(got))
	for i, header := range got {
		hashes[i] = consensushashing.HeaderHash(header)
	}
	checkHashes(t, hashes, expected)
}

func TestCreateChainLocator(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 6)

	locator, err := c.SyncManager.CreateChainLocator(c.GenesisHash, hashes[6])
	if err != nil {
		t.Fatalf("CreateChainLocator: %+v", err)
	}
	// Offsets from the high end double each step, with the low hash
	// closing the locator.
	checkHashes(t, locator, []*externalapi.DomainHash{
		hashes[6], hashes[5], hashes[4], hashes[2], c.GenesisHash,
	})
}

func TestCreateChainLocatorAdjacent(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 2)

	locator, err := c.SyncManager.CreateChainLocator(hashes[1], hashes[2])
	if err != nil {
		t.Fatalf("CreateChainLocator: %+v", err)
	}
	checkHashes(t, locator, []*externalapi.DomainHash{hashes[2], hashes[1]})
}

func TestGetHashesBetween(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 4)

	between, err := c.SyncManager.GetHashesBetween(hashes[1], hashes[4])
	if err != nil {
		t.Fatalf("GetHashesBetween: %+v", err)
	}
	checkHashes(t, between, hashes[1:5])
}

func TestGetHashesBetweenRejectsWideRange(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 6)

	bounded := boundedSyncManager(c, 4)
	_, err := bounded.GetHashesBetween(c.GenesisHash, hashes[6])
	if err == nil {
		t.Fatal("GetHashesBetween served a range wider than the per-message bound")
	}
}

func TestGetHashesBetweenRejectsOffMainChain(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 2)

	_, err := c.SyncManager.GetHashesBetween(externalapi.NewZeroHash(), hashes[2])
	if err == nil {
		t.Fatal("GetHashesBetween accepted a hash off the main chain")
	}
}

func TestGetHashesBetweenRejectsReversedBounds(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 3)

	_, err := c.SyncManager.GetHashesBetween(hashes[3], hashes[1])
	if err == nil {
		t.Fatal("GetHashesBetween accepted reversed bounds")
	}
}

func TestGetHeadersRangeWalksBackToCheckpoint(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 6)

	headers, err := c.SyncManager.GetHeadersRange(
		[]*externalapi.DomainHash{hashes[2]}, nil)
	if err != nil {
		t.Fatalf("GetHeadersRange: %+v", err)
	}
	// Headers come oldest-first, starting right above the checkpoint.
	checkHeaderHashes(t, headers, hashes[3:7])
}

func TestGetHeadersRangeServesWholeChainWithoutCheckpointMatch(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 3)

	// The walk stops at the chain's first block when no checkpoint is
	// met, so the peer receives everything.
	headers, err := c.SyncManager.GetHeadersRange(
		[]*externalapi.DomainHash{externalapi.NewZeroHash()}, nil)
	if err != nil {
		t.Fatalf("GetHeadersRange: %+v", err)
	}
	checkHeaderHashes(t, headers, hashes)
}

func TestGetHeadersRangeRecoveryFallback(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 6)

	// The checkpoint sits more than maxHeadersPerMsg below the tip,
	// so the manager serves the oldest useful batch instead.
	bounded := boundedSyncManager(c, 3)
	headers, err := bounded.GetHeadersRange([]*externalapi.DomainHash{hashes[1]}, nil)
	if err != nil {
		t.Fatalf("GetHeadersRange: %+v", err)
	}
	checkHeaderHashes(t, headers, hashes[2:5])
}

func TestGetHeadersRangeRecoveryWithoutMainChainCheckpoint(t *testing.T) {
	c := testutils.NewContext(t)
	buildChain(t, c, 6)

	bounded := boundedSyncManager(c, 3)
	_, err := bounded.GetHeadersRange(
		[]*externalapi.DomainHash{externalapi.NewZeroHash()}, nil)
	if err == nil {
		t.Fatal("GetHeadersRange served a range for a checkpoint set disjoint from the main chain")
	}
}

func TestGetHeadersRangeFromExplicitStart(t *testing.T) {
	c := testutils.NewContext(t)
	hashes := buildChain(t, c, 5)

	headers, err := c.SyncManager.GetHeadersRange(
		[]*externalapi.DomainHash{hashes[1]}, hashes[4])
	if err != nil {
		t.Fatalf("GetHeadersRange: %+v", err)
	}
	checkHeaderHashes(t, headers, hashes[2:5])
}
