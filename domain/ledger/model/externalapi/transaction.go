package externalapi

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// DomainTransactionIDSize is the size of the array used to store
// transaction IDs.
const DomainTransactionIDSize = 32

// DomainTransactionID is the domain representation of a transaction ID.
type DomainTransactionID struct {
	idArray [DomainTransactionIDSize]byte
}

// NewDomainTransactionIDFromByteArray constructs a new TransactionID
// out of a byte array.
func NewDomainTransactionIDFromByteArray(transactionIDBytes *[DomainTransactionIDSize]byte) *DomainTransactionID {
	return &DomainTransactionID{
		idArray: *transactionIDBytes,
	}
}

// NewDomainTransactionIDFromByteSlice constructs a new TransactionID
// out of a byte slice.
func NewDomainTransactionIDFromByteSlice(transactionIDBytes []byte) (*DomainTransactionID, error) {
	if len(transactionIDBytes) != DomainTransactionIDSize {
		return nil, errors.Errorf("invalid transaction ID size. Want: %d, got: %d",
			DomainTransactionIDSize, len(transactionIDBytes))
	}
	transactionID := DomainTransactionID{}
	copy(transactionID.idArray[:], transactionIDBytes)
	return &transactionID, nil
}

// String returns the TransactionID as the hexadecimal string of its bytes.
func (id DomainTransactionID) String() string {
	return hex.EncodeToString(id.idArray[:])
}

// ByteSlice returns the bytes in this TransactionID represented as a
// byte slice. The bytes are cloned, therefore it is safe to modify
// the resulting slice.
func (id *DomainTransactionID) ByteSlice() []byte {
	arrayClone := id.idArray
	return arrayClone[:]
}

// Equal returns whether id equals to other.
func (id *DomainTransactionID) Equal(other *DomainTransactionID) bool {
	if id == nil || other == nil {
		return id == other
	}

	return id.idArray == other.idArray
}

// DomainOutpoint represents a transaction output that is referenced by
// a transaction input: the ID of the producing transaction and the
// index of the output within it.
type DomainOutpoint struct {
	TransactionID DomainTransactionID
	Index         uint32
}

func (op DomainOutpoint) String() string {
	return fmt.Sprintf("(%s: %d)", op.TransactionID, op.Index)
}

// NewDomainOutpoint instantiates a new DomainOutpoint with the given
// transactionID and index.
func NewDomainOutpoint(transactionID *DomainTransactionID, index uint32) *DomainOutpoint {
	return &DomainOutpoint{
		TransactionID: *transactionID,
		Index:         index,
	}
}

// Equal returns whether op equals to other.
func (op *DomainOutpoint) Equal(other *DomainOutpoint) bool {
	if op == nil || other == nil {
		return op == other
	}

	return *op == *other
}

// DomainTransactionInput represents an input of a transaction: the
// outpoint whose value it consumes, and a signature by the outpoint's
// recipient.
type DomainTransactionInput struct {
	PreviousOutpoint DomainOutpoint
	Signature        []byte
}

// DomainTransactionOutput represents an output of a transaction: an
// amount of coin and the stakeholder it is paid to.
type DomainTransactionOutput struct {
	Value     uint64
	Recipient StakeholderID
}

// DomainTransaction represents a transaction in the ledger: a transfer
// of previously unspent outputs into new outputs.
type DomainTransaction struct {
	Inputs  []*DomainTransactionInput
	Outputs []*DomainTransactionOutput

	// ID is the memoized hash of the transaction. It is set the
	// first time the transaction's ID is computed and must not be
	// set by constructors.
	ID *DomainTransactionID
}

// UTXOEntry represents an unspent transaction output: the value it
// carries and the stakeholder entitled to spend it.
type UTXOEntry struct {
	Amount    uint64
	Recipient StakeholderID
}

// OutpointEntryPair is a UTXO set element: an outpoint together with
// the entry it resolves to.
type OutpointEntryPair struct {
	Outpoint DomainOutpoint
	Entry    UTXOEntry
}
