package serialization

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// SerializeTransaction serializes the given transaction, including
// input signatures.
func SerializeTransaction(tx *externalapi.DomainTransaction) []byte {
	w := NewWriter()
	writeTransaction(w, tx, true)
	return w.Bytes()
}

// SerializeTransactionForID serializes the given transaction without
// input signatures. This is the byte sequence a transaction's ID is
// computed over, so that signing a transaction does not change its ID.
func SerializeTransactionForID(tx *externalapi.DomainTransaction) []byte {
	w := NewWriter()
	writeTransaction(w, tx, false)
	return w.Bytes()
}

func writeTransaction(w *Writer, tx *externalapi.DomainTransaction, includeSignatures bool) {
	w.PutUint64(uint64(len(tx.Inputs)))
	for _, input := range tx.Inputs {
		w.PutTransactionID(&input.PreviousOutpoint.TransactionID)
		w.PutUint32(input.PreviousOutpoint.Index)
		if includeSignatures {
			w.PutVarBytes(input.Signature)
		}
	}
	w.PutUint64(uint64(len(tx.Outputs)))
	for _, output := range tx.Outputs {
		w.PutUint64(output.Value)
		w.PutStakeholderID(&output.Recipient)
	}
}

func readTransaction(r *Reader) (*externalapi.DomainTransaction, error) {
	inputCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	inputs := make([]*externalapi.DomainTransactionInput, inputCount)
	for i := 0; i < inputCount; i++ {
		transactionID, err := r.TransactionID()
		if err != nil {
			return nil, err
		}
		index, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		signature, err := r.VarBytes()
		if err != nil {
			return nil, err
		}
		inputs[i] = &externalapi.DomainTransactionInput{
			PreviousOutpoint: *externalapi.NewDomainOutpoint(transactionID, index),
			Signature:        signature,
		}
	}

	outputCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	outputs := make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := 0; i < outputCount; i++ {
		value, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		recipient, err := r.StakeholderID()
		if err != nil {
			return nil, err
		}
		outputs[i] = &externalapi.DomainTransactionOutput{
			Value:     value,
			Recipient: *recipient,
		}
	}

	return &externalapi.DomainTransaction{Inputs: inputs, Outputs: outputs}, nil
}

// DeserializeTransaction deserializes a single transaction.
func DeserializeTransaction(data []byte) (*externalapi.DomainTransaction, error) {
	r := NewReader(data)
	tx, err := readTransaction(r)
	if err != nil {
		return nil, err
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return tx, nil
}
