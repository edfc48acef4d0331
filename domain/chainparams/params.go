package chainparams

import (
	"time"

	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
)

// Params defines an Oros network by its parameters. The security
// parameters bound how deep a fork may be reconsidered and how close
// to an epoch boundary block construction may proceed.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// EpochSlotCount is the number of slots in every epoch.
	EpochSlotCount uint32

	// BlkSecurityParam bounds the difficulty depth of an acceptable
	// fork. Candidate chains whose intersection with the main chain
	// is deeper than this are rejected as useless.
	BlkSecurityParam uint64

	// SlotSecurityParam bounds how far from the current chain state
	// block construction may proceed. A genesis block for epoch E may
	// only be built once fewer than SlotSecurityParam slots remain in
	// epoch E-1, and a main block may only be built for a slot at
	// most SlotSecurityParam slots past the tip's.
	SlotSecurityParam uint32

	// MempoolTxResidencySlots is the number of slots a transaction
	// must have been resident in the mempool before it is eligible
	// for inclusion in a locally built block.
	MempoolTxResidencySlots uint32

	// MaxHeadersPerMsg is the maximum number of headers served in a
	// single header-range response.
	MaxHeadersPerMsg int

	// SlotDuration is the wall-clock length of one slot.
	SlotDuration time.Duration

	// GenesisTimestamp anchors the slot clock: slot 0 of epoch 0
	// opens at this instant, and every slot thereafter lasts
	// SlotDuration.
	GenesisTimestamp time.Time

	// GenesisBlock is the hardcoded epoch-0 genesis block. Epoch 0 is
	// the only epoch whose genesis block is never constructed.
	GenesisBlock *externalapi.GenesisBlock

	// GenesisHash is the hash of GenesisBlock.
	GenesisHash *externalapi.DomainHash

	// InitialStakeDistribution seeds the UTXO set when the database
	// is fresh. Leader election for epoch 1 draws from this stake.
	InitialStakeDistribution []*externalapi.OutpointEntryPair
}

const (
	mainnetEpochSlotCount = 21600
	testnetEpochSlotCount = 21600
	simnetEpochSlotCount  = 10
)

// MainnetParams defines the network parameters for the main Oros
// network.
var MainnetParams = Params{
	Name:                     "oros-mainnet",
	EpochSlotCount:           mainnetEpochSlotCount,
	BlkSecurityParam:         2160,
	SlotSecurityParam:        4320,
	MempoolTxResidencySlots:  4,
	MaxHeadersPerMsg:         2000,
	SlotDuration:             20 * time.Second,
	GenesisTimestamp:         time.Unix(1735689600, 0), // 2025-01-01 00:00:00 UTC
	GenesisBlock:             mainnetGenesisBlock,
	GenesisHash:              mainnetGenesisHash,
	InitialStakeDistribution: mainnetInitialStake,
}

// TestnetParams defines the network parameters for the test Oros
// network.
var TestnetParams = Params{
	Name:                     "oros-testnet",
	EpochSlotCount:           testnetEpochSlotCount,
	BlkSecurityParam:         2160,
	SlotSecurityParam:        4320,
	MempoolTxResidencySlots:  4,
	MaxHeadersPerMsg:         2000,
	SlotDuration:             20 * time.Second,
	GenesisTimestamp:         time.Unix(1730419200, 0), // 2024-11-01 00:00:00 UTC
	GenesisBlock:             testnetGenesisBlock,
	GenesisHash:              testnetGenesisHash,
	InitialStakeDistribution: testnetInitialStake,
}

// SimnetParams defines the network parameters for the simulation test
// network. Its small epochs make epoch boundaries cheap to reach.
var SimnetParams = Params{
	Name:                     "oros-simnet",
	EpochSlotCount:           simnetEpochSlotCount,
	BlkSecurityParam:         4,
	SlotSecurityParam:        3,
	MempoolTxResidencySlots:  1,
	MaxHeadersPerMsg:         50,
	SlotDuration:             time.Second,
	GenesisTimestamp:         time.Unix(1700000000, 0),
	GenesisBlock:             simnetGenesisBlock,
	GenesisHash:              simnetGenesisHash,
	InitialStakeDistribution: simnetInitialStake,
}

// SlotAt returns the slot the given instant falls into on this
// network's slot clock. Instants before the genesis timestamp map to
// slot 0 of epoch 0.
func (p *Params) SlotAt(instant time.Time) externalapi.SlotID {
	if instant.Before(p.GenesisTimestamp) {
		return externalapi.SlotID{}
	}
	flat := uint64(instant.Sub(p.GenesisTimestamp) / p.SlotDuration)
	return externalapi.SlotID{
		Epoch: externalapi.EpochIndex(flat / uint64(p.EpochSlotCount)),
		Slot:  uint32(flat % uint64(p.EpochSlotCount)),
	}
}
