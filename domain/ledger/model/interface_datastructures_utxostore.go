package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// UTXOStore represents the unspent-output set. Adding and removing
// entries keeps an ECMH multiset commitment in step, so the set's
// state can be cheaply compared across apply/rollback round trips.
type UTXOStore interface {
	HasEntry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint) (bool, error)
	Entry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error)
	AddEntry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint, entry *externalapi.UTXOEntry) error
	RemoveEntry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint) error
	Commitment(dbContext database.DataAccessor) (*externalapi.DomainHash, error)
	StakeDistribution(dbContext database.DataAccessor) (map[externalapi.StakeholderID]uint64, error)
}
