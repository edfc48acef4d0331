package chainparams

import (
	"testing"
	"time"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

func TestSlotAt(t *testing.T) {
	params := &SimnetParams
	genesis := params.GenesisTimestamp

	tests := []struct {
		name     string
		instant  time.Time
		expected externalapi.SlotID
	}{
		{"before genesis", genesis.Add(-time.Hour), externalapi.SlotID{}},
		{"at genesis", genesis, externalapi.SlotID{Epoch: 0, Slot: 0}},
		{"mid first slot", genesis.Add(500 * time.Millisecond), externalapi.SlotID{Epoch: 0, Slot: 0}},
		{"last slot of epoch 0", genesis.Add(9 * time.Second), externalapi.SlotID{Epoch: 0, Slot: 9}},
		{"first slot of epoch 1", genesis.Add(10 * time.Second), externalapi.SlotID{Epoch: 1, Slot: 0}},
		{"deep into epoch 2", genesis.Add(25 * time.Second), externalapi.SlotID{Epoch: 2, Slot: 5}},
	}
	for _, test := range tests {
		got := params.SlotAt(test.instant)
		if got != test.expected {
			t.Errorf("%s: SlotAt returned %s, expected %s", test.name, got, test.expected)
		}
	}
}

func TestGenesisBlocksAreDeterministic(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &SimnetParams} {
		block, hash := newGenesisBlock(params.Name, params.EpochSlotCount, genesisStakeholderCount)
		if !hash.Equal(params.GenesisHash) {
			t.Errorf("%s: rebuilding the genesis block yields hash %s, the network declares %s",
				params.Name, hash, params.GenesisHash)
		}
		if len(block.Body.Leaders) != int(params.EpochSlotCount) {
			t.Errorf("%s: the genesis block assigns %d leaders for %d slots",
				params.Name, len(block.Body.Leaders), params.EpochSlotCount)
		}
		if len(params.InitialStakeDistribution) != genesisStakeholderCount {
			t.Errorf("%s: %d initial stake outputs, expected %d",
				params.Name, len(params.InitialStakeDistribution), genesisStakeholderCount)
		}
	}
}

func TestGenesisHashesDifferAcrossNetworks(t *testing.T) {
	if MainnetParams.GenesisHash.Equal(TestnetParams.GenesisHash) {
		t.Error("mainnet and testnet share a genesis hash")
	}
	if MainnetParams.GenesisHash.Equal(SimnetParams.GenesisHash) {
		t.Error("mainnet and simnet share a genesis hash")
	}
}
