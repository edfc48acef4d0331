package multiset

import (
	"github.com/kaspanet/go-muhash"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/serialization"
	"github.com/pkg/errors"
)

// Multiset tracks an unordered collection of UTXO elements with an
// incrementally updatable commitment. Removal is the exact inverse of
// addition, which is what makes block rollback cheap.
type Multiset struct {
	ms *muhash.MuHash
}

// New returns an empty multiset.
func New() *Multiset {
	return &Multiset{ms: muhash.NewMuHash()}
}

// FromBytes deserializes a multiset from its serialized form.
func FromBytes(multisetBytes []byte) (*Multiset, error) {
	if len(multisetBytes) != muhash.SerializedMuHashSize {
		return nil, errors.Errorf("invalid multiset length %d, expected %d",
			len(multisetBytes), muhash.SerializedMuHashSize)
	}
	serialized := &muhash.SerializedMuHash{}
	copy(serialized[:], multisetBytes)
	ms, err := muhash.DeserializeMuHash(serialized)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Multiset{ms: ms}, nil
}

// AddUTXO adds the given outpoint/entry pair to the multiset.
func (m *Multiset) AddUTXO(outpoint *externalapi.DomainOutpoint, entry *externalapi.UTXOEntry) {
	m.ms.Add(serializeUTXO(outpoint, entry))
}

// RemoveUTXO removes the given outpoint/entry pair from the multiset.
func (m *Multiset) RemoveUTXO(outpoint *externalapi.DomainOutpoint, entry *externalapi.UTXOEntry) {
	m.ms.Remove(serializeUTXO(outpoint, entry))
}

// Hash returns the multiset's commitment hash.
func (m *Multiset) Hash() *externalapi.DomainHash {
	finalizedHash := m.ms.Finalize()
	return externalapi.NewDomainHashFromByteArray(finalizedHash.AsArray())
}

// Serialize returns the multiset's serialized form.
func (m *Multiset) Serialize() []byte {
	serialized := m.ms.Serialize()
	return serialized[:]
}

// Clone returns a deep copy of the multiset.
func (m *Multiset) Clone() *Multiset {
	return &Multiset{ms: m.ms.Clone()}
}

func serializeUTXO(outpoint *externalapi.DomainOutpoint, entry *externalapi.UTXOEntry) []byte {
	element := serialization.SerializeOutpoint(outpoint)
	return append(element, serialization.SerializeUTXOEntry(entry)...)
}
