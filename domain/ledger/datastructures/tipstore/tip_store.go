package tipstore

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

var tipKey = database.MakeBucket(nil).Key([]byte("chain-tip"))

type tipStore struct{}

// New instantiates a new TipStore
func New() model.TipStore {
	return &tipStore{}
}

func (ts *tipStore) HasTip(dbContext database.DataAccessor) (bool, error) {
	return dbContext.Has(tipKey)
}

func (ts *tipStore) Tip(dbContext database.DataAccessor) (*externalapi.DomainHash, error) {
	tipBytes, err := dbContext.Get(tipKey)
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainHashFromByteSlice(tipBytes)
}

func (ts *tipStore) UpdateTip(dbContext database.DataAccessor, tipHash *externalapi.DomainHash) error {
	return dbContext.Put(tipKey, tipHash.ByteSlice())
}
