package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// TipStore represents a store of the chain tip hash
type TipStore interface {
	HasTip(dbContext database.DataAccessor) (bool, error)
	Tip(dbContext database.DataAccessor) (*externalapi.DomainHash, error)
	UpdateTip(dbContext database.DataAccessor, tipHash *externalapi.DomainHash) error
}
