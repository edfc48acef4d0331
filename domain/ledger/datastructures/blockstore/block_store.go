package blockstore

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/serialization"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var headersBucket = database.MakeBucket([]byte("block-headers"))
var blocksBucket = database.MakeBucket([]byte("blocks"))
var undosBucket = database.MakeBucket([]byte("block-undos"))

type blockStore struct{}

// New instantiates a new BlockStore
func New() model.BlockStore {
	return &blockStore{}
}

func (bs *blockStore) HasHeader(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(headersBucket.Key(blockHash.ByteSlice()))
}

func (bs *blockStore) Header(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (externalapi.BlockHeader, error) {
	headerBytes, err := dbContext.Get(headersBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeHeader(headerBytes)
}

func (bs *blockStore) HasBlock(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(blocksBucket.Key(blockHash.ByteSlice()))
}

func (bs *blockStore) Block(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (externalapi.Block, error) {
	blockBytes, err := dbContext.Get(blocksBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeBlock(blockBytes)
}

func (bs *blockStore) Undo(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.BlockUndo, error) {
	undoBytes, err := dbContext.Get(undosBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeBlockUndo(undoBytes)
}

func (bs *blockStore) Blund(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.Blund, error) {
	block, err := bs.Block(dbContext, blockHash)
	if err != nil {
		return nil, err
	}
	undo, err := bs.Undo(dbContext, blockHash)
	if err != nil {
		return nil, err
	}
	return &externalapi.Blund{Block: block, Undo: undo}, nil
}

func (bs *blockStore) PutBlund(dbContext database.DataAccessor, blockHash *externalapi.DomainHash,
	blund *externalapi.Blund) error {

	if blund.Block == nil || blund.Undo == nil {
		return errors.Errorf("cannot store incomplete blund for %s", blockHash)
	}
	err := dbContext.Put(headersBucket.Key(blockHash.ByteSlice()),
		serialization.SerializeHeader(blund.Block.Header()))
	if err != nil {
		return err
	}
	err = dbContext.Put(blocksBucket.Key(blockHash.ByteSlice()),
		serialization.SerializeBlock(blund.Block))
	if err != nil {
		return err
	}
	return dbContext.Put(undosBucket.Key(blockHash.ByteSlice()),
		serialization.SerializeBlockUndo(blund.Undo))
}

func (bs *blockStore) DeleteBlund(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) error {
	err := dbContext.Delete(headersBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return err
	}
	err = dbContext.Delete(blocksBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return err
	}
	return dbContext.Delete(undosBucket.Key(blockHash.ByteSlice()))
}
