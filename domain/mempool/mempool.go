// Package mempool holds locally known transactions that have not yet
// been included in a block, together with the undo data they would
// produce against the current UTXO set.
package mempool

import (
	"sync"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/pkg/errors"
)

type mempool struct {
	mtx sync.Mutex

	// transactions indexes the pool by transaction ID;
	// arrivalOrder preserves insertion order for iteration.
	transactions map[externalapi.DomainTransactionID]*model.MempoolTransaction
	arrivalOrder []*model.MempoolTransaction
}

// New instantiates a new Mempool
func New() model.Mempool {
	return &mempool{
		transactions: make(map[externalapi.DomainTransactionID]*model.MempoolTransaction),
	}
}

// Add inserts the given transaction into the pool. The caller is
// expected to have verified it against the current UTXO set and to
// supply the undo data that verification produced.
func (mp *mempool) Add(transaction *model.MempoolTransaction) error {
	transactionID := consensushashing.TransactionID(transaction.Transaction)

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	if _, ok := mp.transactions[*transactionID]; ok {
		return errors.Errorf("transaction %s is already in the mempool", transactionID)
	}
	mp.transactions[*transactionID] = transaction
	mp.arrivalOrder = append(mp.arrivalOrder, transaction)
	log.Debugf("added transaction %s to the mempool, arrived at %s (%d pooled)",
		transactionID, &transaction.Arrival, len(mp.transactions))
	return nil
}

func (mp *mempool) TransactionsWithUndo() []*model.MempoolTransaction {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	transactions := make([]*model.MempoolTransaction, len(mp.arrivalOrder))
	copy(transactions, mp.arrivalOrder)
	return transactions
}

func (mp *mempool) TopologicalSort(transactions []*model.MempoolTransaction) (
	[]*model.MempoolTransaction, error) {

	producers := make(map[externalapi.DomainTransactionID]*model.MempoolTransaction, len(transactions))
	for _, transaction := range transactions {
		producers[*consensushashing.TransactionID(transaction.Transaction)] = transaction
	}

	// Kahn's algorithm over the spends-from relation: an edge runs
	// from each in-set producer to the transaction spending from it.
	inDegree := make(map[*model.MempoolTransaction]int, len(transactions))
	dependents := make(map[*model.MempoolTransaction][]*model.MempoolTransaction, len(transactions))
	for _, transaction := range transactions {
		inDegree[transaction] = 0
	}
	for _, transaction := range transactions {
		for _, input := range transaction.Transaction.Inputs {
			producer, isPooled := producers[input.PreviousOutpoint.TransactionID]
			if isPooled {
				if producer == transaction {
					return nil, errors.Wrapf(ruleerrors.ErrBrokenTopology,
						"transaction %s spends its own output",
						consensushashing.TransactionID(transaction.Transaction))
				}
				dependents[producer] = append(dependents[producer], transaction)
				inDegree[transaction]++
				continue
			}
			if !undoCoversOutpoint(transaction.Undo, &input.PreviousOutpoint) {
				return nil, errors.Wrapf(ruleerrors.ErrBrokenTopology,
					"transaction %s spends outpoint %s which is neither pooled "+
						"nor resolved against the UTXO set",
					consensushashing.TransactionID(transaction.Transaction),
					input.PreviousOutpoint)
			}
		}
	}

	ready := make([]*model.MempoolTransaction, 0, len(transactions))
	for _, transaction := range transactions {
		if inDegree[transaction] == 0 {
			ready = append(ready, transaction)
		}
	}
	sorted := make([]*model.MempoolTransaction, 0, len(transactions))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, next)
		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	if len(sorted) != len(transactions) {
		return nil, errors.Wrapf(ruleerrors.ErrBrokenTopology,
			"the dependency graph of %d pooled transactions contains a cycle",
			len(transactions))
	}
	return sorted, nil
}

func (mp *mempool) RemoveTransactions(transactions []*externalapi.DomainTransaction) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	removed := make(map[externalapi.DomainTransactionID]struct{}, len(transactions))
	for _, transaction := range transactions {
		transactionID := consensushashing.TransactionID(transaction)
		if _, ok := mp.transactions[*transactionID]; !ok {
			continue
		}
		delete(mp.transactions, *transactionID)
		removed[*transactionID] = struct{}{}
	}
	if len(removed) == 0 {
		return
	}

	remaining := mp.arrivalOrder[:0]
	for _, transaction := range mp.arrivalOrder {
		transactionID := consensushashing.TransactionID(transaction.Transaction)
		if _, ok := removed[*transactionID]; !ok {
			remaining = append(remaining, transaction)
		}
	}
	mp.arrivalOrder = remaining
	log.Debugf("removed %d transactions from the mempool (%d pooled)",
		len(removed), len(mp.transactions))
}

// undoCoversOutpoint reports whether the transaction's pending undo
// data resolves the given outpoint against the UTXO set.
func undoCoversOutpoint(undo *externalapi.TransactionUndo, outpoint *externalapi.DomainOutpoint) bool {
	if undo == nil {
		return false
	}
	for _, spent := range undo.SpentEntries {
		if spent.Outpoint.Equal(outpoint) {
			return true
		}
	}
	return false
}
