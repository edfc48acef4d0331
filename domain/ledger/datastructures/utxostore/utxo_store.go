package utxostore

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/multiset"
	"github.com/orosnet/orosd/domain/ledger/utils/serialization"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var utxosBucket = database.MakeBucket([]byte("utxos"))
var commitmentKey = database.MakeBucket(nil).Key([]byte("utxo-commitment"))

type utxoStore struct{}

// New instantiates a new UTXOStore
func New() model.UTXOStore {
	return &utxoStore{}
}

func (us *utxoStore) HasEntry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint) (bool, error) {
	return dbContext.Has(utxosBucket.Key(serialization.SerializeOutpoint(outpoint)))
}

func (us *utxoStore) Entry(dbContext database.DataAccessor,
	outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error) {

	entryBytes, err := dbContext.Get(utxosBucket.Key(serialization.SerializeOutpoint(outpoint)))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeUTXOEntry(entryBytes)
}

func (us *utxoStore) AddEntry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint,
	entry *externalapi.UTXOEntry) error {

	exists, err := us.HasEntry(dbContext, outpoint)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf("outpoint %s is already in the UTXO set", outpoint)
	}
	err = dbContext.Put(utxosBucket.Key(serialization.SerializeOutpoint(outpoint)),
		serialization.SerializeUTXOEntry(entry))
	if err != nil {
		return err
	}
	return us.updateCommitment(dbContext, func(ms *multiset.Multiset) {
		ms.AddUTXO(outpoint, entry)
	})
}

func (us *utxoStore) RemoveEntry(dbContext database.DataAccessor, outpoint *externalapi.DomainOutpoint) error {
	entry, err := us.Entry(dbContext, outpoint)
	if err != nil {
		return err
	}
	err = dbContext.Delete(utxosBucket.Key(serialization.SerializeOutpoint(outpoint)))
	if err != nil {
		return err
	}
	return us.updateCommitment(dbContext, func(ms *multiset.Multiset) {
		ms.RemoveUTXO(outpoint, entry)
	})
}

func (us *utxoStore) Commitment(dbContext database.DataAccessor) (*externalapi.DomainHash, error) {
	ms, err := us.multiset(dbContext)
	if err != nil {
		return nil, err
	}
	return ms.Hash(), nil
}

func (us *utxoStore) StakeDistribution(dbContext database.DataAccessor) (map[externalapi.StakeholderID]uint64, error) {
	cursor, err := dbContext.Cursor(utxosBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	distribution := make(map[externalapi.StakeholderID]uint64)
	for cursor.Next() {
		entryBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		entry, err := serialization.DeserializeUTXOEntry(entryBytes)
		if err != nil {
			return nil, err
		}
		distribution[entry.Recipient] += entry.Amount
	}
	return distribution, nil
}

func (us *utxoStore) multiset(dbContext database.DataAccessor) (*multiset.Multiset, error) {
	multisetBytes, err := dbContext.Get(commitmentKey)
	if database.IsNotFoundError(err) {
		return multiset.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return multiset.FromBytes(multisetBytes)
}

func (us *utxoStore) updateCommitment(dbContext database.DataAccessor,
	update func(ms *multiset.Multiset)) error {

	ms, err := us.multiset(dbContext)
	if err != nil {
		return err
	}
	update(ms)
	return dbContext.Put(commitmentKey, ms.Serialize())
}
