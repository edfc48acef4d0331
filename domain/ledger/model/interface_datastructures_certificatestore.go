package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// CertificateStore represents the applied delegation state: at most
// one certificate per issuer.
type CertificateStore interface {
	HasCertificate(dbContext database.DataAccessor, issuer *externalapi.StakeholderID) (bool, error)
	Certificate(dbContext database.DataAccessor, issuer *externalapi.StakeholderID) (*externalapi.DelegationCertificate, error)
	PutCertificate(dbContext database.DataAccessor, certificate *externalapi.DelegationCertificate) error
	DeleteCertificate(dbContext database.DataAccessor, issuer *externalapi.StakeholderID) error
}
