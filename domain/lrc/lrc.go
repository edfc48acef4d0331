// Package lrc computes per-epoch slot-leader schedules by weighted
// sampling of the stake distribution (follow-the-stake): every slot of
// an epoch is assigned to a stakeholder with probability proportional
// to the stake they hold.
package lrc

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

type leaderElectionManager struct {
	leaderStore model.LeaderStore
	utxoStore   model.UTXOStore

	epochSlotCount uint32
}

// New instantiates a new LeaderElectionManager
func New(leaderStore model.LeaderStore, utxoStore model.UTXOStore,
	epochSlotCount uint32) model.LeaderElectionManager {

	return &leaderElectionManager{
		leaderStore:    leaderStore,
		utxoStore:      utxoStore,
		epochSlotCount: epochSlotCount,
	}
}

func (lem *leaderElectionManager) ComputeLeaders(dbContext database.DataAccessor,
	epoch externalapi.EpochIndex) error {

	alreadyComputed, err := lem.leaderStore.HasLeaders(dbContext, epoch)
	if err != nil {
		return err
	}
	if alreadyComputed {
		return nil
	}

	distribution, err := lem.utxoStore.StakeDistribution(dbContext)
	if err != nil {
		return err
	}
	// Sampling draws modulo the total stake, so a distribution that
	// is empty or holds only zero-value outputs elects nobody.
	totalStake := uint64(0)
	for _, amount := range distribution {
		totalStake += amount
	}
	if totalStake == 0 {
		return ruleerrors.NewErrUnknownLeaders(epoch)
	}
	seed, err := lem.epochSeed(dbContext, epoch)
	if err != nil {
		return err
	}

	leaders := sampleLeaders(distribution, seed, lem.epochSlotCount)
	log.Infof("computed %d slot leaders for epoch %d over %d stakeholders",
		len(leaders), epoch, len(distribution))
	return lem.leaderStore.PutLeaders(dbContext, epoch, leaders)
}

func (lem *leaderElectionManager) Leaders(dbContext database.DataAccessor,
	epoch externalapi.EpochIndex) (externalapi.SlotLeaders, error) {

	leaders, err := lem.leaderStore.Leaders(dbContext, epoch)
	if database.IsNotFoundError(err) {
		return nil, ruleerrors.NewErrUnknownLeaders(epoch)
	}
	if err != nil {
		return nil, err
	}
	return leaders, nil
}

func (lem *leaderElectionManager) DiscardLeaders(dbContext database.DataAccessor,
	epoch externalapi.EpochIndex) error {

	log.Infof("discarding the slot-leader schedule of the rolled back epoch %d", epoch)
	return lem.leaderStore.DeleteLeaders(dbContext, epoch)
}

// epochSeed derives the sampling seed for an epoch from the epoch
// index and the UTXO set commitment, so every node that applied the
// same chain draws the same schedule.
func (lem *leaderElectionManager) epochSeed(dbContext database.DataAccessor,
	epoch externalapi.EpochIndex) ([]byte, error) {

	commitment, err := lem.utxoStore.Commitment(dbContext)
	if err != nil {
		return nil, err
	}
	writer := hashes.NewLeaderSeedWriter()
	epochBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(epochBytes, uint64(epoch))
	writer.InfallibleWrite(epochBytes)
	writer.InfallibleWrite(commitment.ByteSlice())
	return writer.Finalize().ByteSlice(), nil
}

// sampleLeaders assigns every slot of the epoch to a stakeholder with
// probability proportional to held stake. Stakeholders are walked in
// ID order, so the cumulative ranges are identical on every node.
func sampleLeaders(distribution map[externalapi.StakeholderID]uint64, seed []byte,
	epochSlotCount uint32) externalapi.SlotLeaders {

	stakeholders := make([]externalapi.StakeholderID, 0, len(distribution))
	for stakeholder := range distribution {
		stakeholders = append(stakeholders, stakeholder)
	}
	sort.Slice(stakeholders, func(i, j int) bool {
		return bytes.Compare(stakeholders[i].ByteSlice(), stakeholders[j].ByteSlice()) < 0
	})

	totalStake := uint64(0)
	for _, stakeholder := range stakeholders {
		totalStake += distribution[stakeholder]
	}

	leaders := make(externalapi.SlotLeaders, epochSlotCount)
	for slot := uint32(0); slot < epochSlotCount; slot++ {
		draw := drawStake(seed, slot, totalStake)
		cumulative := uint64(0)
		for _, stakeholder := range stakeholders {
			cumulative += distribution[stakeholder]
			if draw < cumulative {
				leaders[slot] = stakeholder
				break
			}
		}
	}
	return leaders
}

// drawStake maps (seed, slot) to a pseudorandom point in the total
// stake range.
func drawStake(seed []byte, slot uint32, totalStake uint64) uint64 {
	writer := hashes.NewLeaderSeedWriter()
	writer.InfallibleWrite(seed)
	slotBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(slotBytes, slot)
	writer.InfallibleWrite(slotBytes)
	drawHash := writer.Finalize()
	return binary.LittleEndian.Uint64(drawHash.ByteSlice()[:8]) % totalStake
}
