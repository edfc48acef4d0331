package chainparams

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
)

// Epoch-0 genesis blocks are never constructed at runtime. They are
// built here, once, from fixed seeds: each network's slot-leader
// schedule and initial stake distribution derive deterministically
// from its name, so every node computes identical genesis hashes.

func genesisStakeholders(networkName string, count int) []externalapi.StakeholderID {
	stakeholders := make([]externalapi.StakeholderID, count)
	for i := 0; i < count; i++ {
		writer := hashes.NewStakeholderIDWriter()
		writer.InfallibleWrite([]byte(networkName))
		writer.InfallibleWrite([]byte{byte(i)})
		stakeholders[i] = *externalapi.NewStakeholderIDFromByteArray(writer.Finalize().ByteArray())
	}
	return stakeholders
}

func genesisLeaders(networkName string, epochSlotCount uint32, stakeholderCount int) externalapi.SlotLeaders {
	stakeholders := genesisStakeholders(networkName, stakeholderCount)
	leaders := make(externalapi.SlotLeaders, epochSlotCount)
	for i := uint32(0); i < epochSlotCount; i++ {
		leaders[i] = stakeholders[int(i)%stakeholderCount]
	}
	return leaders
}

func newGenesisBlock(networkName string, epochSlotCount uint32, stakeholderCount int) (
	*externalapi.GenesisBlock, *externalapi.DomainHash) {

	body := &externalapi.GenesisBlockBody{
		Leaders: genesisLeaders(networkName, epochSlotCount, stakeholderCount),
	}
	block := &externalapi.GenesisBlock{
		GenesisHeader: &externalapi.GenesisBlockHeader{
			Parent:         *externalapi.NewZeroHash(),
			Epoch:          0,
			ChainDiff:      0,
			BodyCommitment: *consensushashing.GenesisBodyHash(body),
		},
		Body: body,
	}
	return block, consensushashing.BlockHash(block)
}

func initialStake(networkName string, stakeholderCount int, amount uint64) []*externalapi.OutpointEntryPair {
	stakeholders := genesisStakeholders(networkName, stakeholderCount)
	pairs := make([]*externalapi.OutpointEntryPair, stakeholderCount)
	for i, stakeholder := range stakeholders {
		writer := hashes.NewTransactionIDWriter()
		writer.InfallibleWrite([]byte(networkName))
		writer.InfallibleWrite([]byte("initial-stake"))
		writer.InfallibleWrite([]byte{byte(i)})
		pairs[i] = &externalapi.OutpointEntryPair{
			Outpoint: externalapi.DomainOutpoint{
				TransactionID: *externalapi.NewDomainTransactionIDFromByteArray(writer.Finalize().ByteArray()),
				Index:         0,
			},
			Entry: externalapi.UTXOEntry{Amount: amount, Recipient: stakeholder},
		}
	}
	return pairs
}

const genesisStakeholderCount = 7

var mainnetGenesisBlock, mainnetGenesisHash = newGenesisBlock(
	"oros-mainnet", mainnetEpochSlotCount, genesisStakeholderCount)

var testnetGenesisBlock, testnetGenesisHash = newGenesisBlock(
	"oros-testnet", testnetEpochSlotCount, genesisStakeholderCount)

var simnetGenesisBlock, simnetGenesisHash = newGenesisBlock(
	"oros-simnet", simnetEpochSlotCount, genesisStakeholderCount)

var mainnetInitialStake = initialStake("oros-mainnet", genesisStakeholderCount, 1000000000)
var testnetInitialStake = initialStake("oros-testnet", genesisStakeholderCount, 1000000000)
var simnetInitialStake = initialStake("oros-simnet", genesisStakeholderCount, 1000000000)
