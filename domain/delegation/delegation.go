// Package delegation implements the delegation certificate
// collaborator. A stakeholder may delegate its block-production right
// to another stakeholder by issuing a signed certificate; the latest
// applied certificate per issuer is the one in force.
package delegation

import (
	"sync"

	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/pkg/errors"
)

type delegationManager struct {
	certificateStore model.CertificateStore

	mtx     sync.Mutex
	pending []*externalapi.DelegationCertificate
}

// New instantiates a new DelegationManager
func New(certificateStore model.CertificateStore) model.DelegationManager {
	return &delegationManager{certificateStore: certificateStore}
}

func (dm *delegationManager) VerifyBlockCertificates(dbContext database.DataAccessor,
	blocks []externalapi.Block) ([][]*externalapi.DelegationCertificate, error) {

	// Certificates applied earlier in the sequence replace store state
	// for later blocks, so track them in an overlay.
	overlay := make(map[externalapi.StakeholderID]*externalapi.DelegationCertificate)

	replaced := make([][]*externalapi.DelegationCertificate, len(blocks))
	for i, block := range blocks {
		mainBlock, ok := block.(*externalapi.MainBlock)
		if !ok {
			replaced[i] = nil
			continue
		}
		blockReplaced := []*externalapi.DelegationCertificate{}
		for _, certificate := range mainBlock.Body.Certificates {
			err := dm.verifyCertificate(certificate, mainBlock.MainHeader.Slot.Epoch)
			if err != nil {
				return nil, err
			}
			previous, err := dm.currentCertificate(dbContext, overlay, &certificate.Issuer)
			if err != nil {
				return nil, err
			}
			if previous != nil {
				blockReplaced = append(blockReplaced, previous)
			}
			overlay[certificate.Issuer] = certificate
		}
		replaced[i] = blockReplaced
	}
	return replaced, nil
}

func (dm *delegationManager) verifyCertificate(certificate *externalapi.DelegationCertificate,
	blockEpoch externalapi.EpochIndex) error {

	if len(certificate.IssuerKey) != blocksigning.SchnorrPublicKeySize {
		return errors.Wrapf(ruleerrors.ErrBadCertificate,
			"issuer key is %d bytes while %d are expected",
			len(certificate.IssuerKey), blocksigning.SchnorrPublicKeySize)
	}
	signer := blocksigning.StakeholderIDFromPublicKey(certificate.IssuerKey)
	if !signer.Equal(&certificate.Issuer) {
		return errors.Wrapf(ruleerrors.ErrBadCertificate,
			"issuer key belongs to stakeholder %s while the certificate claims %s",
			signer, certificate.Issuer)
	}
	if certificate.Epoch != blockEpoch {
		return errors.Wrapf(ruleerrors.ErrBadCertificate,
			"certificate is for epoch %d but is carried by a block of epoch %d",
			certificate.Epoch, blockEpoch)
	}
	signingHash := consensushashing.CertificateSigningHash(certificate)
	valid, err := blocksigning.VerifyHash(certificate.IssuerKey, signingHash, certificate.Signature)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCertificate, "malformed signature: %s", err)
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrBadCertificate,
			"invalid signature by issuer %s", certificate.Issuer)
	}
	return nil
}

// currentCertificate resolves the certificate currently in force for
// an issuer, preferring certificates applied earlier in the verified
// sequence over store state.
func (dm *delegationManager) currentCertificate(dbContext database.DataAccessor,
	overlay map[externalapi.StakeholderID]*externalapi.DelegationCertificate,
	issuer *externalapi.StakeholderID) (*externalapi.DelegationCertificate, error) {

	if certificate, ok := overlay[*issuer]; ok {
		return certificate, nil
	}
	hasCertificate, err := dm.certificateStore.HasCertificate(dbContext, issuer)
	if err != nil {
		return nil, err
	}
	if !hasCertificate {
		return nil, nil
	}
	return dm.certificateStore.Certificate(dbContext, issuer)
}

func (dm *delegationManager) PendingCertificates(
	epoch externalapi.EpochIndex) []*externalapi.DelegationCertificate {

	dm.mtx.Lock()
	defer dm.mtx.Unlock()

	certificates := []*externalapi.DelegationCertificate{}
	kept := dm.pending[:0]
	for _, certificate := range dm.pending {
		if certificate.Epoch < epoch {
			log.Debugf("dropping the expired delegation certificate by issuer %s for epoch %d",
				certificate.Issuer, certificate.Epoch)
			continue
		}
		kept = append(kept, certificate)
		if certificate.Epoch == epoch {
			certificates = append(certificates, certificate)
		}
	}
	dm.pending = kept
	return certificates
}

// AddPendingCertificate verifies the given certificate and queues it
// for inclusion in a locally built block of the certificate's epoch.
func (dm *delegationManager) AddPendingCertificate(certificate *externalapi.DelegationCertificate) error {
	err := dm.verifyCertificate(certificate, certificate.Epoch)
	if err != nil {
		return err
	}

	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	dm.pending = append(dm.pending, certificate)
	log.Debugf("queued delegation certificate by issuer %s", certificate.Issuer)
	return nil
}
