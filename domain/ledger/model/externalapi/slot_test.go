package externalapi

import "testing"

const testEpochSlotCount = 10

func TestEpochOrSlotOrdering(t *testing.T) {
	// The timeline in ascending order: each element must be strictly
	// before every later one and never before an earlier one.
	timeline := []*EpochOrSlot{
		NewEpochBoundary(0),
		NewEpochSlot(SlotID{Epoch: 0, Slot: 0}),
		NewEpochSlot(SlotID{Epoch: 0, Slot: 9}),
		NewEpochBoundary(1),
		NewEpochSlot(SlotID{Epoch: 1, Slot: 0}),
		NewEpochSlot(SlotID{Epoch: 1, Slot: 5}),
		NewEpochBoundary(2),
	}
	for i, earlier := range timeline {
		for j, later := range timeline {
			got := earlier.Before(later, testEpochSlotCount)
			expected := i < j
			if got != expected {
				t.Errorf("Before(%s, %s) = %t, expected %t", earlier, later, got, expected)
			}
		}
	}
}

func TestFlatIndex(t *testing.T) {
	tests := []struct {
		position *EpochOrSlot
		expected uint64
	}{
		{NewEpochBoundary(0), 0},
		{NewEpochSlot(SlotID{Epoch: 0, Slot: 0}), 1},
		{NewEpochSlot(SlotID{Epoch: 0, Slot: 9}), 10},
		{NewEpochBoundary(1), 11},
		{NewEpochSlot(SlotID{Epoch: 1, Slot: 0}), 12},
	}
	for _, test := range tests {
		got := test.position.FlatIndex(testEpochSlotCount)
		if got != test.expected {
			t.Errorf("FlatIndex(%s) = %d, expected %d", test.position, got, test.expected)
		}
	}
}

func TestSlotIDPanicsOnBoundary(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("SlotID on an epoch boundary did not panic")
		}
	}()
	NewEpochBoundary(3).SlotID()
}
