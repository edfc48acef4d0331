package externalapi

import "fmt"

// EpochIndex is the index of an epoch on the chain's timeline.
// Epoch 0 is the hardcoded genesis epoch.
type EpochIndex uint64

// ChainDifficulty is the accumulated weight of a chain. It is
// non-decreasing along any valid chain and increases by exactly one
// unit per applied main block. It is used, together with main-chain
// membership, as the fork-choice tiebreaker.
type ChainDifficulty uint64

// SlotID identifies a single slot: the epoch it belongs to and its
// offset within that epoch.
type SlotID struct {
	Epoch EpochIndex
	Slot  uint32
}

func (s SlotID) String() string {
	return fmt.Sprintf("(epoch %d, slot %d)", s.Epoch, s.Slot)
}

// EpochOrSlot locates a header on the slot timeline. Genesis headers
// sit on the epoch boundary, before slot 0 of their epoch; main
// headers sit on their slot. The total order is:
//
//	boundary(e) < (e, 0) < (e, 1) < ... < (e, C-1) < boundary(e+1)
type EpochOrSlot struct {
	IsBoundary bool
	Epoch      EpochIndex
	Slot       uint32
}

// NewEpochBoundary returns the EpochOrSlot of the given epoch's boundary.
func NewEpochBoundary(epoch EpochIndex) *EpochOrSlot {
	return &EpochOrSlot{IsBoundary: true, Epoch: epoch}
}

// NewEpochSlot returns the EpochOrSlot of the given slot.
func NewEpochSlot(slot SlotID) *EpochOrSlot {
	return &EpochOrSlot{Epoch: slot.Epoch, Slot: slot.Slot}
}

// SlotID returns the slot this EpochOrSlot sits on. It must not be
// called on an epoch boundary.
func (eos *EpochOrSlot) SlotID() SlotID {
	if eos.IsBoundary {
		panic("called SlotID on an epoch boundary")
	}
	return SlotID{Epoch: eos.Epoch, Slot: eos.Slot}
}

// FlatIndex flattens the EpochOrSlot into a single index on the
// timeline, where each epoch occupies epochSlotCount+1 positions (the
// boundary plus its slots). Distances measured in flat units are
// therefore slot distances, up to one extra unit per crossed epoch
// boundary.
func (eos *EpochOrSlot) FlatIndex(epochSlotCount uint32) uint64 {
	flat := uint64(eos.Epoch) * uint64(epochSlotCount+1)
	if !eos.IsBoundary {
		flat += uint64(eos.Slot) + 1
	}
	return flat
}

// Before returns whether this EpochOrSlot is strictly earlier than
// other on the timeline.
func (eos *EpochOrSlot) Before(other *EpochOrSlot, epochSlotCount uint32) bool {
	return eos.FlatIndex(epochSlotCount) < other.FlatIndex(epochSlotCount)
}

func (eos *EpochOrSlot) String() string {
	if eos.IsBoundary {
		return fmt.Sprintf("(boundary of epoch %d)", eos.Epoch)
	}
	return eos.SlotID().String()
}
