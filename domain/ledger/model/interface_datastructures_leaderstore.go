package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// LeaderStore represents a store of per-epoch slot-leader schedules
type LeaderStore interface {
	HasLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) (bool, error)
	Leaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) (externalapi.SlotLeaders, error)
	PutLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex, leaders externalapi.SlotLeaders) error
	DeleteLeaders(dbContext database.DataAccessor, epoch externalapi.EpochIndex) error
}
