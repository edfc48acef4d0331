package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// BlockStore represents a store of blocks, headers and their undo data
type BlockStore interface {
	HasHeader(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error)
	Header(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (externalapi.BlockHeader, error)
	HasBlock(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error)
	Block(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (externalapi.Block, error)
	Undo(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.BlockUndo, error)
	Blund(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.Blund, error)
	PutBlund(dbContext database.DataAccessor, blockHash *externalapi.DomainHash, blund *externalapi.Blund) error
	DeleteBlund(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) error
}
