package serialization

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/pkg/errors"
)

// Header type tags.
const (
	headerTagGenesis = 0
	headerTagMain    = 1
)

// SerializeHeader serializes the given header, of either variant.
func SerializeHeader(header externalapi.BlockHeader) []byte {
	w := NewWriter()
	writeHeader(w, header)
	return w.Bytes()
}

func writeHeader(w *Writer, header externalapi.BlockHeader) {
	switch header := header.(type) {
	case *externalapi.GenesisBlockHeader:
		w.PutUint8(headerTagGenesis)
		writeGenesisHeaderFields(w, header)
	case *externalapi.MainBlockHeader:
		w.PutUint8(headerTagMain)
		writeMainHeaderFields(w, header, true)
	default:
		panic(errors.Errorf("unknown header type %T", header))
	}
}

func writeGenesisHeaderFields(w *Writer, header *externalapi.GenesisBlockHeader) {
	w.PutHash(&header.Parent)
	w.PutUint64(uint64(header.Epoch))
	w.PutUint64(uint64(header.ChainDiff))
	w.PutHash(&header.BodyCommitment)
}

func writeMainHeaderFields(w *Writer, header *externalapi.MainBlockHeader, includeSignature bool) {
	w.PutHash(&header.Parent)
	w.PutUint64(uint64(header.Slot.Epoch))
	w.PutUint32(header.Slot.Slot)
	w.PutUint64(uint64(header.ChainDiff))
	w.PutUint16(header.ProtocolVersion)
	w.PutString(header.SoftwareVersion)
	w.PutHash(&header.BodyCommitment)
	w.PutStakeholderID(&header.Leader)
	w.PutVarBytes(header.LeaderPublicKey)
	if includeSignature {
		w.PutVarBytes(header.Signature)
	}
}

// SerializeMainHeaderForSigning serializes the given main header
// without its signature field. This is the byte sequence the slot
// leader signs and verifiers check.
func SerializeMainHeaderForSigning(header *externalapi.MainBlockHeader) []byte {
	w := NewWriter()
	w.PutUint8(headerTagMain)
	writeMainHeaderFields(w, header, false)
	return w.Bytes()
}

// DeserializeHeader deserializes a header of either variant.
func DeserializeHeader(data []byte) (externalapi.BlockHeader, error) {
	r := NewReader(data)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	err = r.ExpectEnd()
	if err != nil {
		return nil, err
	}
	return header, nil
}

func readHeader(r *Reader) (externalapi.BlockHeader, error) {
	tag, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case headerTagGenesis:
		return readGenesisHeaderFields(r)
	case headerTagMain:
		return readMainHeaderFields(r)
	default:
		return nil, errors.Errorf("unknown header tag %d", tag)
	}
}

func readGenesisHeaderFields(r *Reader) (*externalapi.GenesisBlockHeader, error) {
	parent, err := r.Hash()
	if err != nil {
		return nil, err
	}
	epoch, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	difficulty, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	bodyCommitment, err := r.Hash()
	if err != nil {
		return nil, err
	}
	return &externalapi.GenesisBlockHeader{
		Parent:         *parent,
		Epoch:          externalapi.EpochIndex(epoch),
		ChainDiff:      externalapi.ChainDifficulty(difficulty),
		BodyCommitment: *bodyCommitment,
	}, nil
}

func readMainHeaderFields(r *Reader) (*externalapi.MainBlockHeader, error) {
	parent, err := r.Hash()
	if err != nil {
		return nil, err
	}
	epoch, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	slot, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	difficulty, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	protocolVersion, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	softwareVersion, err := r.String()
	if err != nil {
		return nil, err
	}
	bodyCommitment, err := r.Hash()
	if err != nil {
		return nil, err
	}
	leader, err := r.StakeholderID()
	if err != nil {
		return nil, err
	}
	leaderPublicKey, err := r.VarBytes()
	if err != nil {
		return nil, err
	}
	signature, err := r.VarBytes()
	if err != nil {
		return nil, err
	}
	return &externalapi.MainBlockHeader{
		Parent:          *parent,
		Slot:            externalapi.SlotID{Epoch: externalapi.EpochIndex(epoch), Slot: slot},
		ChainDiff:       externalapi.ChainDifficulty(difficulty),
		ProtocolVersion: protocolVersion,
		SoftwareVersion: softwareVersion,
		BodyCommitment:  *bodyCommitment,
		Leader:          *leader,
		LeaderPublicKey: leaderPublicKey,
		Signature:       signature,
	}, nil
}
