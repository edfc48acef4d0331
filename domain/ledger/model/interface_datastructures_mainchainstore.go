package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// MainChainStore represents the height index of the adopted main
// chain: hashes in application order, appended on apply and popped on
// rollback.
type MainChainStore interface {
	IsBlockInMainChain(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error)
	ChainHeight(dbContext database.DataAccessor) (uint64, error)
	HashAtHeight(dbContext database.DataAccessor, height uint64) (*externalapi.DomainHash, error)
	HeightOf(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (uint64, error)
	Append(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) error
	RemoveLast(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) error
}
