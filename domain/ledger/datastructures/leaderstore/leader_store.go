package leaderstore

import (
	"encoding/binary"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/serialization"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

var leadersBucket = database.MakeBucket([]byte("slot-leaders"))

type leaderStore struct{}

// New instantiates a new LeaderStore
func New() model.LeaderStore {
	return &leaderStore{}
}

func (ls *leaderStore) HasLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) (bool, error) {
	return dbContext.Has(leadersBucket.Key(serializeEpoch(epoch)))
}

func (ls *leaderStore) Leaders(dbContext database.DataAccessor,
	epoch externalapi.EpochIndex) (externalapi.SlotLeaders, error) {

	leadersBytes, err := dbContext.Get(leadersBucket.Key(serializeEpoch(epoch)))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeSlotLeaders(leadersBytes)
}

func (ls *leaderStore) PutLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex,
	leaders externalapi.SlotLeaders) error {

	return dbContext.Put(leadersBucket.Key(serializeEpoch(epoch)), serialization.SerializeSlotLeaders(leaders))
}

func (ls *leaderStore) DeleteLeaders(dbContext database.DataAccessor,
	epoch externalapi.EpochIndex) error {

	return dbContext.Delete(leadersBucket.Key(serializeEpoch(epoch)))
}

func serializeEpoch(epoch externalapi.EpochIndex) []byte {
	epochBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(epochBytes, uint64(epoch))
	return epochBytes
}
