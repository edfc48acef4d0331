package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// HeaderClassifier decides what to do with externally received headers
// relative to the current tip.
type HeaderClassifier interface {
	// ClassifyHeader classifies a single header against the current
	// tip given the ambient current slot.
	ClassifyHeader(header externalapi.BlockHeader, currentSlot externalapi.SlotID) (*externalapi.HeaderClassification, error)

	// FindLCA returns the most recent hash the given newest-first
	// candidate header chain shares with the local main chain, or nil
	// when there is none.
	FindLCA(headers []externalapi.BlockHeader) (*externalapi.DomainHash, error)

	// ClassifyHeaders classifies a newest-first candidate header
	// chain against the local main chain.
	ClassifyHeaders(headers []externalapi.BlockHeader) (*externalapi.ChainClassification, error)
}
