package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// SyncManager serves the header ranges and locators peers use to
// compare and catch up with our chain.
type SyncManager interface {
	// GetHeadersRange returns headers oldest-first for a peer that
	// already has the given checkpoint hashes, walking back from
	// startHash (the tip when nil). When the peer is too far behind
	// for a bounded walk it falls back to the most recent bounded
	// batch above the newest checkpoint still on the main chain.
	GetHeadersRange(checkpoints []*externalapi.DomainHash, startHash *externalapi.DomainHash) ([]externalapi.BlockHeader, error)

	// CreateChainLocator returns an exponentially spaced sample of
	// main-chain hashes between lowHash and highHash, newest first.
	CreateChainLocator(lowHash, highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)

	// GetHashesBetween returns the inclusive main-chain hash range
	// from lowHash up to highHash, oldest first.
	GetHashesBetween(lowHash, highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
}
