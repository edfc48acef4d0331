package headerclassifier

import (
	"fmt"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// headerClassifier decides the fate of externally received headers:
// single headers against the tip, and candidate chains against the
// main chain by latest-common-ancestor search.
type headerClassifier struct {
	databaseContext database.Database
	blockStore      model.BlockStore
	tipStore        model.TipStore
	mainChainStore  model.MainChainStore
	blockValidator  model.BlockValidator

	blkSecurityParam uint64
}

// New instantiates a new HeaderClassifier
func New(databaseContext database.Database, blockStore model.BlockStore, tipStore model.TipStore,
	mainChainStore model.MainChainStore, blockValidator model.BlockValidator,
	blkSecurityParam uint64) model.HeaderClassifier {

	return &headerClassifier{
		databaseContext:  databaseContext,
		blockStore:       blockStore,
		tipStore:         tipStore,
		mainChainStore:   mainChainStore,
		blockValidator:   blockValidator,
		blkSecurityParam: blkSecurityParam,
	}
}

func (hc *headerClassifier) ClassifyHeader(header externalapi.BlockHeader,
	currentSlot externalapi.SlotID) (*externalapi.HeaderClassification, error) {

	if _, ok := header.(*externalapi.GenesisBlockHeader); ok {
		return useless("genesis headers are not relayed individually"), nil
	}
	headerSlot := header.EpochOrSlot()
	if headerSlot.IsBoundary || headerSlot.SlotID() != currentSlot {
		return useless(fmt.Sprintf("header slot %s does not match the current slot %s",
			headerSlot, currentSlot)), nil
	}

	tipHash, err := hc.tipStore.Tip(hc.databaseContext)
	if err != nil {
		return nil, err
	}
	tipHeader, err := hc.blockStore.Header(hc.databaseContext, tipHash)
	if err != nil {
		return nil, err
	}

	if header.ParentHash().Equal(tipHash) {
		err := hc.blockValidator.ValidateHeaderInIsolation(header)
		if err == nil {
			err = hc.blockValidator.ValidateHeaderInContext(
				hc.databaseContext, tipHash, tipHeader, header, currentSlot)
		}
		if err != nil {
			return &externalapi.HeaderClassification{
				Class:  externalapi.HeaderInvalid,
				Reason: err.Error(),
			}, nil
		}
		return &externalapi.HeaderClassification{Class: externalapi.HeaderContinues}, nil
	}

	if header.Difficulty() > tipHeader.Difficulty() {
		return &externalapi.HeaderClassification{Class: externalapi.HeaderAlternative}, nil
	}
	return useless("header does not continue the tip and is not heavier than it"), nil
}

func (hc *headerClassifier) FindLCA(headers []externalapi.BlockHeader) (*externalapi.DomainHash, error) {
	// Candidates are scanned newest to oldest, with the oldest
	// header's parent last, so the first main-chain member found is
	// the most recent shared ancestor.
	candidates := make([]*externalapi.DomainHash, 0, len(headers)+1)
	for _, header := range headers {
		candidates = append(candidates, consensushashing.HeaderHash(header))
	}
	candidates = append(candidates, headers[len(headers)-1].ParentHash())

	for _, candidate := range candidates {
		isInMainChain, err := hc.mainChainStore.IsBlockInMainChain(hc.databaseContext, candidate)
		if err != nil {
			return nil, err
		}
		if isInMainChain {
			return candidate, nil
		}
	}
	return nil, nil
}

func (hc *headerClassifier) ClassifyHeaders(headers []externalapi.BlockHeader) (
	*externalapi.ChainClassification, error) {

	err := hc.validateHeaderChain(headers)
	if err != nil {
		return &externalapi.ChainClassification{
			Class:  externalapi.ChainInvalid,
			Reason: err.Error(),
		}, nil
	}

	oldest := headers[len(headers)-1]
	oldestHash := consensushashing.HeaderHash(oldest)
	oldestKnown, err := hc.blockStore.HasHeader(hc.databaseContext, oldestHash)
	if err != nil {
		return nil, err
	}
	if !oldestKnown {
		return &externalapi.ChainClassification{
			Class:  externalapi.ChainInvalid,
			Reason: fmt.Sprintf("the oldest candidate header %s is not known locally", oldestHash),
		}, nil
	}

	tipHash, err := hc.tipStore.Tip(hc.databaseContext)
	if err != nil {
		return nil, err
	}
	newestHash := consensushashing.HeaderHash(headers[0])
	if newestHash.Equal(tipHash) {
		return chainUseless("the candidate chain's newest header is already the tip"), nil
	}

	lcaHash, err := hc.FindLCA(headers)
	if err != nil {
		return nil, err
	}
	if lcaHash == nil {
		return chainUseless("the candidate chain shares no block with the main chain"), nil
	}

	tipHeader, err := hc.blockStore.Header(hc.databaseContext, tipHash)
	if err != nil {
		return nil, err
	}
	lcaHeader, err := hc.blockStore.Header(hc.databaseContext, lcaHash)
	if err != nil {
		return nil, err
	}
	if lcaHeader.Difficulty() > tipHeader.Difficulty() {
		log.Criticalf("LCA %s has difficulty %d above the tip's %d",
			lcaHash, lcaHeader.Difficulty(), tipHeader.Difficulty())
		panic("difficulty bookkeeping is broken: an ancestor of the tip is heavier than the tip")
	}
	depthDiff := uint64(tipHeader.Difficulty() - lcaHeader.Difficulty())

	if !lcaHash.Equal(tipHash) && depthDiff > hc.blkSecurityParam {
		return chainUseless(fmt.Sprintf(
			"the candidate chain forks %d blocks below the tip, deeper than the %d bound",
			depthDiff, hc.blkSecurityParam)), nil
	}
	lcaChild := childOfLCA(headers, lcaHash)
	if lcaChild == nil {
		return chainUseless("the candidate chain lies entirely inside the main chain"), nil
	}
	return &externalapi.ChainClassification{
		Class:    externalapi.ChainValid,
		LCAChild: lcaChild,
	}, nil
}

// validateHeaderChain checks that the newest-first headers link to one
// another and are well-formed in isolation.
func (hc *headerClassifier) validateHeaderChain(headers []externalapi.BlockHeader) error {
	for i, header := range headers {
		err := hc.blockValidator.ValidateHeaderInIsolation(header)
		if err != nil {
			return err
		}
		if i == len(headers)-1 {
			break
		}
		parentHash := consensushashing.HeaderHash(headers[i+1])
		if !header.ParentHash().Equal(parentHash) {
			return errors.Errorf("candidate header %d does not link to its predecessor", i)
		}
	}
	return nil
}

// childOfLCA returns the hash of the candidate header immediately
// following the LCA, or nil when the LCA is the newest candidate and
// therefore has no child within the chain. When the LCA is the oldest
// header's parent the child is the oldest header itself.
func childOfLCA(headers []externalapi.BlockHeader,
	lcaHash *externalapi.DomainHash) *externalapi.DomainHash {

	for i := len(headers) - 1; i >= 0; i-- {
		if headers[i].ParentHash().Equal(lcaHash) {
			return consensushashing.HeaderHash(headers[i])
		}
	}
	return nil
}

func useless(reason string) *externalapi.HeaderClassification {
	return &externalapi.HeaderClassification{Class: externalapi.HeaderUseless, Reason: reason}
}

func chainUseless(reason string) *externalapi.ChainClassification {
	return &externalapi.ChainClassification{Class: externalapi.ChainUseless, Reason: reason}
}
