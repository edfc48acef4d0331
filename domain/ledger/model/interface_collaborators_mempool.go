package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// MempoolTransaction is a transaction waiting in the mempool together
// with its pending undo data and the position on the slot timeline at
// which it arrived.
type MempoolTransaction struct {
	Transaction *externalapi.DomainTransaction
	Undo        *externalapi.TransactionUndo
	Arrival     externalapi.EpochOrSlot
}

// Mempool holds locally known transactions that have not yet been
// included in a block.
type Mempool interface {
	// Add inserts an already verified transaction into the pool. It
	// errors on a transaction that is already pooled.
	Add(transaction *MempoolTransaction) error

	// TransactionsWithUndo returns the pooled transactions with their
	// pending undo data, in arrival order.
	TransactionsWithUndo() []*MempoolTransaction

	// TopologicalSort orders the given transactions so every
	// transaction appears after the pooled transactions it spends
	// from. It returns a rule error wrapping
	// ruleerrors.ErrBrokenTopology when the dependency graph cannot
	// be linearized.
	TopologicalSort(transactions []*MempoolTransaction) ([]*MempoolTransaction, error)

	// RemoveTransactions drops the given transactions from the pool,
	// typically after they were included in an applied block.
	RemoveTransactions(transactions []*externalapi.DomainTransaction)
}
