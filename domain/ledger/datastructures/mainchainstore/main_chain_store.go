package mainchainstore

import (
	"encoding/binary"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var heightsBucket = database.MakeBucket([]byte("main-chain-heights"))
var hashesBucket = database.MakeBucket([]byte("main-chain-hashes"))
var chainHeightKey = database.MakeBucket(nil).Key([]byte("main-chain-height"))

type mainChainStore struct{}

// New instantiates a new MainChainStore
func New() model.MainChainStore {
	return &mainChainStore{}
}

func (mcs *mainChainStore) IsBlockInMainChain(dbContext database.DataAccessor,
	blockHash *externalapi.DomainHash) (bool, error) {

	return dbContext.Has(hashesBucket.Key(blockHash.ByteSlice()))
}

func (mcs *mainChainStore) ChainHeight(dbContext database.DataAccessor) (uint64, error) {
	heightBytes, err := dbContext.Get(chainHeightKey)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(heightBytes), nil
}

func (mcs *mainChainStore) HashAtHeight(dbContext database.DataAccessor,
	height uint64) (*externalapi.DomainHash, error) {

	hashBytes, err := dbContext.Get(heightsBucket.Key(serializeHeight(height)))
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainHashFromByteSlice(hashBytes)
}

func (mcs *mainChainStore) HeightOf(dbContext database.DataAccessor,
	blockHash *externalapi.DomainHash) (uint64, error) {

	heightBytes, err := dbContext.Get(hashesBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(heightBytes), nil
}

func (mcs *mainChainStore) Append(dbContext database.DataAccessor,
	blockHash *externalapi.DomainHash) error {

	height, err := mcs.ChainHeight(dbContext)
	if err != nil {
		return err
	}
	err = dbContext.Put(heightsBucket.Key(serializeHeight(height)), blockHash.ByteSlice())
	if err != nil {
		return err
	}
	err = dbContext.Put(hashesBucket.Key(blockHash.ByteSlice()), serializeHeight(height))
	if err != nil {
		return err
	}
	return dbContext.Put(chainHeightKey, serializeHeight(height+1))
}

func (mcs *mainChainStore) RemoveLast(dbContext database.DataAccessor,
	blockHash *externalapi.DomainHash) error {

	height, err := mcs.ChainHeight(dbContext)
	if err != nil {
		return err
	}
	if height == 0 {
		return errors.Errorf("cannot remove %s from an empty main chain", blockHash)
	}
	lastHash, err := mcs.HashAtHeight(dbContext, height-1)
	if err != nil {
		return err
	}
	if !lastHash.Equal(blockHash) {
		return errors.Errorf("cannot remove %s from the main chain: last hash is %s",
			blockHash, lastHash)
	}
	err = dbContext.Delete(heightsBucket.Key(serializeHeight(height - 1)))
	if err != nil {
		return err
	}
	err = dbContext.Delete(hashesBucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return err
	}
	return dbContext.Put(chainHeightKey, serializeHeight(height-1))
}

func serializeHeight(height uint64) []byte {
	heightBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBytes, height)
	return heightBytes
}
