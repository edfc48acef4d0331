package syncmanager

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// syncManager serves the header ranges, locators and hash ranges that
// drive chain comparison with peers.
type syncManager struct {
	databaseContext database.Database
	blockStore      model.BlockStore
	tipStore        model.TipStore
	mainChainStore  model.MainChainStore

	maxHeadersPerMsg int
}

// New instantiates a new SyncManager
func New(databaseContext database.Database, blockStore model.BlockStore, tipStore model.TipStore,
	mainChainStore model.MainChainStore, maxHeadersPerMsg int) model.SyncManager {

	return &syncManager{
		databaseContext:  databaseContext,
		blockStore:       blockStore,
		tipStore:         tipStore,
		mainChainStore:   mainChainStore,
		maxHeadersPerMsg: maxHeadersPerMsg,
	}
}

func (sm *syncManager) GetHeadersRange(checkpoints []*externalapi.DomainHash,
	startHash *externalapi.DomainHash) ([]externalapi.BlockHeader, error) {

	if len(checkpoints) == 0 {
		return nil, errors.New("getHeadersRange requires at least one checkpoint")
	}
	if startHash == nil {
		tipHash, err := sm.tipStore.Tip(sm.databaseContext)
		if err != nil {
			return nil, err
		}
		startHash = tipHash
	}

	checkpointSet := make(map[externalapi.DomainHash]struct{}, len(checkpoints))
	for _, checkpoint := range checkpoints {
		checkpointSet[*checkpoint] = struct{}{}
	}

	headers, reachedCheckpoint, err := sm.walkBackToCheckpoint(startHash, checkpointSet)
	if err != nil {
		return nil, err
	}
	if reachedCheckpoint {
		reverseHeaders(headers)
		return headers, nil
	}

	// The peer is too far behind for a bounded backward walk. Serve
	// the oldest useful batch instead: the headers right above the
	// newest checkpoint that is still on the main chain.
	log.Debugf("no checkpoint within %d headers below %s, falling back to recovery mode",
		sm.maxHeadersPerMsg, startHash)
	return sm.headersAboveNewestCheckpoint(checkpoints)
}

// walkBackToCheckpoint collects headers newest-first from startHash
// down to (and excluding) the first checkpoint met, bounded by
// maxHeadersPerMsg. The walk also stops when the chain's first block
// is reached.
func (sm *syncManager) walkBackToCheckpoint(startHash *externalapi.DomainHash,
	checkpointSet map[externalapi.DomainHash]struct{}) ([]externalapi.BlockHeader, bool, error) {

	headers := make([]externalapi.BlockHeader, 0, sm.maxHeadersPerMsg)
	currentHash := startHash
	for len(headers) < sm.maxHeadersPerMsg {
		header, err := sm.blockStore.Header(sm.databaseContext, currentHash)
		if err != nil {
			return nil, false, err
		}
		headers = append(headers, header)

		parentHash := header.ParentHash()
		if _, ok := checkpointSet[*parentHash]; ok {
			return headers, true, nil
		}
		parentKnown, err := sm.blockStore.HasHeader(sm.databaseContext, parentHash)
		if err != nil {
			return nil, false, err
		}
		if !parentKnown {
			return headers, true, nil
		}
		currentHash = parentHash
	}
	return nil, false, nil
}

func (sm *syncManager) headersAboveNewestCheckpoint(
	checkpoints []*externalapi.DomainHash) ([]externalapi.BlockHeader, error) {

	newestHeight := uint64(0)
	found := false
	for _, checkpoint := range checkpoints {
		isInMainChain, err := sm.mainChainStore.IsBlockInMainChain(sm.databaseContext, checkpoint)
		if err != nil {
			return nil, err
		}
		if !isInMainChain {
			continue
		}
		height, err := sm.mainChainStore.HeightOf(sm.databaseContext, checkpoint)
		if err != nil {
			return nil, err
		}
		if !found || height > newestHeight {
			newestHeight = height
			found = true
		}
	}
	if !found {
		return nil, errors.New("no checkpoint is on the main chain")
	}

	chainHeight, err := sm.mainChainStore.ChainHeight(sm.databaseContext)
	if err != nil {
		return nil, err
	}
	headers := make([]externalapi.BlockHeader, 0, sm.maxHeadersPerMsg)
	for height := newestHeight + 1; height < chainHeight && len(headers) < sm.maxHeadersPerMsg; height++ {
		hash, err := sm.mainChainStore.HashAtHeight(sm.databaseContext, height)
		if err != nil {
			return nil, err
		}
		header, err := sm.blockStore.Header(sm.databaseContext, hash)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, nil
}

func (sm *syncManager) CreateChainLocator(lowHash,
	highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	lowHeight, highHeight, err := sm.orderedHeights(lowHash, highHash)
	if err != nil {
		return nil, err
	}

	// Offsets from the high hash grow exponentially: 0, 1, 2, 4, 8...
	locator := make([]*externalapi.DomainHash, 0, 32)
	offset := uint64(0)
	nextOffset := uint64(1)
	for offset < highHeight-lowHeight {
		hash, err := sm.mainChainStore.HashAtHeight(sm.databaseContext, highHeight-offset)
		if err != nil {
			return nil, err
		}
		locator = append(locator, hash)

		offset = nextOffset
		nextOffset *= 2
	}
	locator = append(locator, lowHash)
	return locator, nil
}

func (sm *syncManager) GetHashesBetween(lowHash,
	highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	lowHeight, highHeight, err := sm.orderedHeights(lowHash, highHash)
	if err != nil {
		return nil, err
	}
	if highHeight-lowHeight+1 > uint64(sm.maxHeadersPerMsg) {
		return nil, errors.Errorf("the range between %s and %s spans %d hashes, more than the %d bound",
			lowHash, highHash, highHeight-lowHeight+1, sm.maxHeadersPerMsg)
	}

	hashes := make([]*externalapi.DomainHash, 0, highHeight-lowHeight+1)
	for height := lowHeight; height <= highHeight; height++ {
		hash, err := sm.mainChainStore.HashAtHeight(sm.databaseContext, height)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// orderedHeights resolves both hashes to main-chain heights, refusing
// when either is off the main chain or the two are out of order.
func (sm *syncManager) orderedHeights(lowHash, highHash *externalapi.DomainHash) (uint64, uint64, error) {
	lowHeight, err := sm.heightInMainChain(lowHash)
	if err != nil {
		return 0, 0, err
	}
	highHeight, err := sm.heightInMainChain(highHash)
	if err != nil {
		return 0, 0, err
	}
	if lowHeight > highHeight {
		return 0, 0, errors.Errorf("%s is above %s on the main chain", lowHash, highHash)
	}
	return lowHeight, highHeight, nil
}

func (sm *syncManager) heightInMainChain(hash *externalapi.DomainHash) (uint64, error) {
	isInMainChain, err := sm.mainChainStore.IsBlockInMainChain(sm.databaseContext, hash)
	if err != nil {
		return 0, err
	}
	if !isInMainChain {
		return 0, errors.Errorf("%s is not on the main chain", hash)
	}
	return sm.mainChainStore.HeightOf(sm.databaseContext, hash)
}

func reverseHeaders(headers []externalapi.BlockHeader) {
	for i, j := 0, len(headers)-1; i < j; i, j = i+1, j-1 {
		headers[i], headers[j] = headers[j], headers[i]
	}
}
