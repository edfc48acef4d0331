package serialization

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/pkg/errors"
)

// Reader deserializes domain entities from their canonical binary
// form, as produced by Writer.
type Reader struct {
	r *bytes.Reader
}

// NewReader returns a new Reader over the given serialized data.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// ExpectEnd returns an error if any serialized data is left unread.
func (r *Reader) ExpectEnd() error {
	if r.r.Len() != 0 {
		return errors.Errorf("expected end of serialized data, but %d bytes remain", r.r.Len())
	}
	return nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	value, err := r.r.ReadByte()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return value, nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	var scratch [2]byte
	_, err := io.ReadFull(r.r, scratch[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint16(scratch[:]), nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	var scratch [4]byte
	_, err := io.ReadFull(r.r, scratch[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint32(scratch[:]), nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	var scratch [8]byte
	_, err := io.ReadFull(r.r, scratch[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(scratch[:]), nil
}

// Bool reads a bool encoded as a single 0/1 byte.
func (r *Reader) Bool() (bool, error) {
	value, err := r.Uint8()
	if err != nil {
		return false, err
	}
	switch value {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Errorf("invalid bool byte %d", value)
	}
}

// Hash reads a DomainHash.
func (r *Reader) Hash() (*externalapi.DomainHash, error) {
	var scratch [externalapi.DomainHashSize]byte
	_, err := io.ReadFull(r.r, scratch[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return externalapi.NewDomainHashFromByteArray(&scratch), nil
}

// StakeholderID reads a StakeholderID.
func (r *Reader) StakeholderID() (*externalapi.StakeholderID, error) {
	var scratch [externalapi.StakeholderIDSize]byte
	_, err := io.ReadFull(r.r, scratch[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return externalapi.NewStakeholderIDFromByteArray(&scratch), nil
}

// TransactionID reads a DomainTransactionID.
func (r *Reader) TransactionID() (*externalapi.DomainTransactionID, error) {
	var scratch [externalapi.DomainTransactionIDSize]byte
	_, err := io.ReadFull(r.r, scratch[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return externalapi.NewDomainTransactionIDFromByteArray(&scratch), nil
}

// Length reads a list length. Since every serialized list element
// occupies at least one byte, a length exceeding the remaining data is
// rejected outright rather than risking a huge allocation.
func (r *Reader) Length() (int, error) {
	length, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	if length > uint64(r.r.Len()) {
		return 0, errors.Errorf("declared list length %d exceeds the %d remaining serialized bytes",
			length, r.r.Len())
	}
	return int(length), nil
}

// VarBytes reads a length-prefixed byte slice.
func (r *Reader) VarBytes() ([]byte, error) {
	length, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if length > uint64(r.r.Len()) {
		return nil, errors.Errorf("declared length %d exceeds the %d remaining serialized bytes",
			length, r.r.Len())
	}
	data := make([]byte, length)
	_, err = io.ReadFull(r.r, data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// String reads a length-prefixed string.
func (r *Reader) String() (string, error) {
	data, err := r.VarBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
