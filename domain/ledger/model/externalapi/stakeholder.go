package externalapi

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// StakeholderIDSize of array used to store stakeholder IDs.
const StakeholderIDSize = 32

// StakeholderID identifies a stakeholder by the hash of its public key.
type StakeholderID struct {
	idArray [StakeholderIDSize]byte
}

// NewStakeholderIDFromByteArray constructs a new StakeholderID out of a byte array.
func NewStakeholderIDFromByteArray(idBytes *[StakeholderIDSize]byte) *StakeholderID {
	return &StakeholderID{
		idArray: *idBytes,
	}
}

// NewStakeholderIDFromByteSlice constructs a new StakeholderID out of a byte slice.
// Returns an error if the length of the byte slice is not exactly
// `StakeholderIDSize`.
func NewStakeholderIDFromByteSlice(idBytes []byte) (*StakeholderID, error) {
	if len(idBytes) != StakeholderIDSize {
		return nil, errors.Errorf("invalid stakeholder ID size. Want: %d, got: %d",
			StakeholderIDSize, len(idBytes))
	}
	stakeholderID := StakeholderID{}
	copy(stakeholderID.idArray[:], idBytes)
	return &stakeholderID, nil
}

// String returns the StakeholderID as the hexadecimal string of its bytes.
func (id StakeholderID) String() string {
	return hex.EncodeToString(id.idArray[:])
}

// ByteArray returns the bytes in this StakeholderID represented as a byte array.
// The bytes are cloned, therefore it is safe to modify the resulting array.
func (id *StakeholderID) ByteArray() *[StakeholderIDSize]byte {
	arrayClone := id.idArray
	return &arrayClone
}

// ByteSlice returns the bytes in this StakeholderID represented as a byte slice.
// The bytes are cloned, therefore it is safe to modify the resulting slice.
func (id *StakeholderID) ByteSlice() []byte {
	return id.ByteArray()[:]
}

// Equal returns whether id equals to other.
func (id *StakeholderID) Equal(other *StakeholderID) bool {
	if id == nil || other == nil {
		return id == other
	}

	return id.idArray == other.idArray
}

// SlotLeaders is an epoch-scoped ordered mapping from slot offset to
// the stakeholder permitted to produce that slot's main block. Its
// length always equals the chain's epochSlotCount.
type SlotLeaders []StakeholderID

// Equal returns whether leaders equals to other.
func (leaders SlotLeaders) Equal(other SlotLeaders) bool {
	if len(leaders) != len(other) {
		return false
	}
	for i := range leaders {
		if leaders[i] != other[i] {
			return false
		}
	}
	return true
}
