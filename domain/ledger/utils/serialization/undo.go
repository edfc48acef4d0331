package serialization

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// SerializeBlockUndo serializes the given block undo data.
func SerializeBlockUndo(undo *externalapi.BlockUndo) []byte {
	w := NewWriter()
	w.PutUint64(uint64(len(undo.TxUndos)))
	for _, txUndo := range undo.TxUndos {
		w.PutUint64(uint64(len(txUndo.SpentEntries)))
		for _, pair := range txUndo.SpentEntries {
			writeOutpointEntryPair(w, pair)
		}
	}
	w.PutUint64(uint64(len(undo.ReplacedCertificates)))
	for _, certificate := range undo.ReplacedCertificates {
		writeCertificate(w, certificate, true)
	}
	return w.Bytes()
}

func writeOutpointEntryPair(w *Writer, pair *externalapi.OutpointEntryPair) {
	w.PutTransactionID(&pair.Outpoint.TransactionID)
	w.PutUint32(pair.Outpoint.Index)
	w.PutUint64(pair.Entry.Amount)
	w.PutStakeholderID(&pair.Entry.Recipient)
}

func readOutpointEntryPair(r *Reader) (*externalapi.OutpointEntryPair, error) {
	transactionID, err := r.TransactionID()
	if err != nil {
		return nil, err
	}
	index, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	amount, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	recipient, err := r.StakeholderID()
	if err != nil {
		return nil, err
	}
	return &externalapi.OutpointEntryPair{
		Outpoint: *externalapi.NewDomainOutpoint(transactionID, index),
		Entry:    externalapi.UTXOEntry{Amount: amount, Recipient: *recipient},
	}, nil
}

// DeserializeBlockUndo deserializes block undo data.
func DeserializeBlockUndo(data []byte) (*externalapi.BlockUndo, error) {
	r := NewReader(data)
	txUndoCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	txUndos := make([]*externalapi.TransactionUndo, txUndoCount)
	for i := 0; i < txUndoCount; i++ {
		entryCount, err := r.Length()
		if err != nil {
			return nil, err
		}
		spentEntries := make([]*externalapi.OutpointEntryPair, entryCount)
		for j := 0; j < entryCount; j++ {
			spentEntries[j], err = readOutpointEntryPair(r)
			if err != nil {
				return nil, err
			}
		}
		txUndos[i] = &externalapi.TransactionUndo{SpentEntries: spentEntries}
	}
	certificateCount, err := r.Length()
	if err != nil {
		return nil, err
	}
	replacedCertificates := make([]*externalapi.DelegationCertificate, certificateCount)
	for i := 0; i < certificateCount; i++ {
		replacedCertificates[i], err = readCertificate(r)
		if err != nil {
			return nil, err
		}
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return &externalapi.BlockUndo{
		TxUndos:              txUndos,
		ReplacedCertificates: replacedCertificates,
	}, nil
}

// SerializeSlotLeaders serializes an epoch's slot-leader assignment.
func SerializeSlotLeaders(leaders externalapi.SlotLeaders) []byte {
	w := NewWriter()
	writeSlotLeaders(w, leaders)
	return w.Bytes()
}

// DeserializeSlotLeaders deserializes an epoch's slot-leader assignment.
func DeserializeSlotLeaders(data []byte) (externalapi.SlotLeaders, error) {
	r := NewReader(data)
	leaders, err := readSlotLeaders(r)
	if err != nil {
		return nil, err
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return leaders, nil
}

// SerializeUTXOEntry serializes a single UTXO entry.
func SerializeUTXOEntry(entry *externalapi.UTXOEntry) []byte {
	w := NewWriter()
	w.PutUint64(entry.Amount)
	w.PutStakeholderID(&entry.Recipient)
	return w.Bytes()
}

// DeserializeUTXOEntry deserializes a single UTXO entry.
func DeserializeUTXOEntry(data []byte) (*externalapi.UTXOEntry, error) {
	r := NewReader(data)
	amount, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	recipient, err := r.StakeholderID()
	if err != nil {
		return nil, err
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return &externalapi.UTXOEntry{Amount: amount, Recipient: *recipient}, nil
}

// SerializeOutpoint serializes a single outpoint. The serialization is
// canonical and ordered, so it is usable as a database key.
func SerializeOutpoint(outpoint *externalapi.DomainOutpoint) []byte {
	w := NewWriter()
	w.PutTransactionID(&outpoint.TransactionID)
	w.PutUint32(outpoint.Index)
	return w.Bytes()
}

// DeserializeOutpoint deserializes a single outpoint.
func DeserializeOutpoint(data []byte) (*externalapi.DomainOutpoint, error) {
	r := NewReader(data)
	transactionID, err := r.TransactionID()
	if err != nil {
		return nil, err
	}
	index, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainOutpoint(transactionID, index), nil
}
