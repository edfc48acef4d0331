package certificatestore

import (
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/serialization"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

var certificatesBucket = database.MakeBucket([]byte("delegation-certificates"))

type certificateStore struct{}

// New instantiates a new CertificateStore
func New() model.CertificateStore {
	return &certificateStore{}
}

func (cs *certificateStore) HasCertificate(dbContext database.DataAccessor,
	issuer *externalapi.StakeholderID) (bool, error) {

	return dbContext.Has(certificatesBucket.Key(issuer.ByteSlice()))
}

func (cs *certificateStore) Certificate(dbContext database.DataAccessor,
	issuer *externalapi.StakeholderID) (*externalapi.DelegationCertificate, error) {

	certificateBytes, err := dbContext.Get(certificatesBucket.Key(issuer.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeCertificate(certificateBytes)
}

func (cs *certificateStore) PutCertificate(dbContext database.DataAccessor,
	certificate *externalapi.DelegationCertificate) error {

	return dbContext.Put(certificatesBucket.Key(certificate.Issuer.ByteSlice()),
		serialization.SerializeCertificate(certificate))
}

func (cs *certificateStore) DeleteCertificate(dbContext database.DataAccessor,
	issuer *externalapi.StakeholderID) error {

	return dbContext.Delete(certificatesBucket.Key(issuer.ByteSlice()))
}
