package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// TransactionValidator checks block transactions against the UTXO set
// and produces the undo data needed to reverse them.
type TransactionValidator interface {
	// VerifyBlockTransactions verifies the transactions of the given
	// oldest-first block sequence against the stored UTXO set,
	// tracking intermediate spends across the sequence, and returns
	// one undo list per block. Genesis blocks yield an empty list.
	VerifyBlockTransactions(dbContext database.DataAccessor, blocks []externalapi.Block) ([][]*externalapi.TransactionUndo, error)

	// ValidateTransaction verifies a single transaction against the
	// stored UTXO set and returns its undo data. Used for mempool
	// admission.
	ValidateTransaction(dbContext database.DataAccessor, tx *externalapi.DomainTransaction) (*externalapi.TransactionUndo, error)
}
