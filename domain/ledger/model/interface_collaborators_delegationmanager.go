package model

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// DelegationManager verifies delegation certificates and serves the
// certificates waiting for inclusion in a locally built block.
type DelegationManager interface {
	// VerifyBlockCertificates verifies the certificates of the given
	// oldest-first block sequence and returns, per block, the
	// previously applied certificates each block would replace. A
	// certificate with no predecessor contributes nothing to the
	// replaced list.
	VerifyBlockCertificates(dbContext database.DataAccessor, blocks []externalapi.Block) ([][]*externalapi.DelegationCertificate, error)

	// PendingCertificates returns the certificates queued locally for
	// inclusion in a block of the given epoch. Queued certificates of
	// an earlier epoch can never be included anymore and are dropped.
	PendingCertificates(epoch externalapi.EpochIndex) []*externalapi.DelegationCertificate

	// AddPendingCertificate verifies the given certificate and queues
	// it for inclusion in a locally built block.
	AddPendingCertificate(certificate *externalapi.DelegationCertificate) error
}
