package serialization

import (
	"bytes"
	"encoding/binary"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// Writer serializes domain entities into a canonical little-endian
// binary form. Writes into the underlying buffer never fail.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a new empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns everything written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// PutUint8 writes a single byte.
func (w *Writer) PutUint8(value uint8) {
	w.buf.WriteByte(value)
}

// PutUint16 writes a little-endian uint16.
func (w *Writer) PutUint16(value uint16) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], value)
	w.buf.Write(scratch[:])
}

// PutUint32 writes a little-endian uint32.
func (w *Writer) PutUint32(value uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], value)
	w.buf.Write(scratch[:])
}

// PutUint64 writes a little-endian uint64.
func (w *Writer) PutUint64(value uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], value)
	w.buf.Write(scratch[:])
}

// PutBool writes a bool as a single 0/1 byte.
func (w *Writer) PutBool(value bool) {
	if value {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

// PutHash writes a DomainHash.
func (w *Writer) PutHash(hash *externalapi.DomainHash) {
	w.buf.Write(hash.ByteSlice())
}

// PutStakeholderID writes a StakeholderID.
func (w *Writer) PutStakeholderID(id *externalapi.StakeholderID) {
	w.buf.Write(id.ByteSlice())
}

// PutTransactionID writes a DomainTransactionID.
func (w *Writer) PutTransactionID(id *externalapi.DomainTransactionID) {
	w.buf.Write(id.ByteSlice())
}

// PutVarBytes writes a length-prefixed byte slice.
func (w *Writer) PutVarBytes(data []byte) {
	w.PutUint64(uint64(len(data)))
	w.buf.Write(data)
}

// PutString writes a length-prefixed string.
func (w *Writer) PutString(value string) {
	w.PutVarBytes([]byte(value))
}
