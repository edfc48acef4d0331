package delegation

import (
	"testing"

	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/ledger/datastructures/certificatestore"
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/orosnet/orosd/infrastructure/db/database/ldb"
)

type testIssuer struct {
	keyPair     *secp256k1.SchnorrKeyPair
	publicKey   []byte
	stakeholder externalapi.StakeholderID
}

func newTestIssuer(t *testing.T) *testIssuer {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	publicKey, err := blocksigning.SerializePublicKey(keyPair)
	if err != nil {
		t.Fatalf("SerializePublicKey: %+v", err)
	}
	return &testIssuer{
		keyPair:     keyPair,
		publicKey:   publicKey,
		stakeholder: *blocksigning.StakeholderIDFromPublicKey(publicKey),
	}
}

func (issuer *testIssuer) certificate(t *testing.T, delegateTag string,
	epoch externalapi.EpochIndex) *externalapi.DelegationCertificate {

	writer := hashes.NewStakeholderIDWriter()
	writer.InfallibleWrite([]byte(delegateTag))
	certificate := &externalapi.DelegationCertificate{
		Issuer:    issuer.stakeholder,
		Delegate:  *externalapi.NewStakeholderIDFromByteArray(writer.Finalize().ByteArray()),
		Epoch:     epoch,
		IssuerKey: issuer.publicKey,
	}
	signature, err := blocksigning.SignHash(issuer.keyPair,
		consensushashing.CertificateSigningHash(certificate))
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	certificate.Signature = signature
	return certificate
}

func setup(t *testing.T) (*ldb.LevelDB, model.CertificateStore, model.DelegationManager) {
	databaseContext, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	t.Cleanup(func() {
		err := databaseContext.Close()
		if err != nil {
			t.Errorf("closing the test database: %+v", err)
		}
	})
	certificateStore := certificatestore.New()
	return databaseContext, certificateStore, New(certificateStore)
}

func blockWithCertificates(epoch externalapi.EpochIndex,
	certificates ...*externalapi.DelegationCertificate) externalapi.Block {

	return &externalapi.MainBlock{
		MainHeader: &externalapi.MainBlockHeader{
			Slot: externalapi.SlotID{Epoch: epoch, Slot: 0},
		},
		Body: &externalapi.MainBlockBody{Certificates: certificates},
	}
}

func TestVerifyBlockCertificates(t *testing.T) {
	databaseContext, _, manager := setup(t)
	issuer := newTestIssuer(t)
	certificate := issuer.certificate(t, "delegate", 2)

	replaced, err := manager.VerifyBlockCertificates(databaseContext,
		[]externalapi.Block{blockWithCertificates(2, certificate)})
	if err != nil {
		t.Fatalf("VerifyBlockCertificates: %+v", err)
	}
	if len(replaced) != 1 || len(replaced[0]) != 0 {
		t.Fatalf("a first certificate replaced %v, expected nothing", replaced)
	}
}

func TestVerifyTracksReplacementsAcrossSequence(t *testing.T) {
	databaseContext, _, manager := setup(t)
	issuer := newTestIssuer(t)
	first := issuer.certificate(t, "first delegate", 2)
	second := issuer.certificate(t, "second delegate", 2)

	// The second block's certificate replaces the first block's even
	// though neither is in the store yet.
	replaced, err := manager.VerifyBlockCertificates(databaseContext, []externalapi.Block{
		blockWithCertificates(2, first),
		blockWithCertificates(2, second),
	})
	if err != nil {
		t.Fatalf("VerifyBlockCertificates: %+v", err)
	}
	if len(replaced[0]) != 0 {
		t.Errorf("the first block replaced %v, expected nothing", replaced[0])
	}
	if len(replaced[1]) != 1 || replaced[1][0] != first {
		t.Errorf("the second block replaced %v, expected the first certificate", replaced[1])
	}
}

func TestVerifyResolvesReplacementsAgainstStore(t *testing.T) {
	databaseContext, certificateStore, manager := setup(t)
	issuer := newTestIssuer(t)
	applied := issuer.certificate(t, "applied delegate", 1)
	err := certificateStore.PutCertificate(databaseContext, applied)
	if err != nil {
		t.Fatalf("PutCertificate: %+v", err)
	}

	replacement := issuer.certificate(t, "new delegate", 2)
	replaced, err := manager.VerifyBlockCertificates(databaseContext,
		[]externalapi.Block{blockWithCertificates(2, replacement)})
	if err != nil {
		t.Fatalf("VerifyBlockCertificates: %+v", err)
	}
	if len(replaced[0]) != 1 || !replaced[0][0].Issuer.Equal(&applied.Issuer) {
		t.Fatalf("the block replaced %v, expected the stored certificate", replaced[0])
	}
}

func TestVerifyRejectsWrongEpoch(t *testing.T) {
	databaseContext, _, manager := setup(t)
	issuer := newTestIssuer(t)
	certificate := issuer.certificate(t, "delegate", 3)

	_, err := manager.VerifyBlockCertificates(databaseContext,
		[]externalapi.Block{blockWithCertificates(2, certificate)})
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("VerifyBlockCertificates returned %+v, expected a rule error for a wrong epoch", err)
	}
}

func TestVerifyRejectsTamperedDelegate(t *testing.T) {
	databaseContext, _, manager := setup(t)
	issuer := newTestIssuer(t)
	certificate := issuer.certificate(t, "delegate", 2)
	certificate.Delegate = externalapi.StakeholderID{}

	_, err := manager.VerifyBlockCertificates(databaseContext,
		[]externalapi.Block{blockWithCertificates(2, certificate)})
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("VerifyBlockCertificates returned %+v, expected a rule error for a tampered delegate", err)
	}
}

func TestVerifyRejectsForeignIssuerKey(t *testing.T) {
	databaseContext, _, manager := setup(t)
	issuer := newTestIssuer(t)
	impostor := newTestIssuer(t)
	certificate := issuer.certificate(t, "delegate", 2)
	certificate.IssuerKey = impostor.publicKey

	_, err := manager.VerifyBlockCertificates(databaseContext,
		[]externalapi.Block{blockWithCertificates(2, certificate)})
	if !ruleerrors.IsRuleError(err) {
		t.Fatalf("VerifyBlockCertificates returned %+v, expected a rule error for a foreign issuer key", err)
	}
}

func TestPendingCertificates(t *testing.T) {
	_, _, manager := setup(t)
	issuer := newTestIssuer(t)
	certificate := issuer.certificate(t, "delegate", 2)

	err := manager.AddPendingCertificate(certificate)
	if err != nil {
		t.Fatalf("AddPendingCertificate: %+v", err)
	}
	pending := manager.PendingCertificates(2)
	if len(pending) != 1 || pending[0] != certificate {
		t.Fatalf("PendingCertificates returned %v, expected the queued certificate", pending)
	}

	invalid := issuer.certificate(t, "delegate", 2)
	invalid.Signature = make([]byte, 64)
	err = manager.AddPendingCertificate(invalid)
	if err == nil {
		t.Fatal("AddPendingCertificate accepted an invalid signature")
	}
}

func TestPendingCertificatesScopedToEpoch(t *testing.T) {
	_, _, manager := setup(t)
	issuer := newTestIssuer(t)
	current := issuer.certificate(t, "current delegate", 1)
	future := newTestIssuer(t).certificate(t, "future delegate", 2)

	for _, certificate := range []*externalapi.DelegationCertificate{current, future} {
		err := manager.AddPendingCertificate(certificate)
		if err != nil {
			t.Fatalf("AddPendingCertificate: %+v", err)
		}
	}

	pending := manager.PendingCertificates(1)
	if len(pending) != 1 || pending[0] != current {
		t.Fatalf("PendingCertificates(1) returned %v, expected only the epoch-1 certificate", pending)
	}

	// Once epoch 1 has passed its certificate can never be included
	// anymore and must be dropped from the queue for good.
	pending = manager.PendingCertificates(2)
	if len(pending) != 1 || pending[0] != future {
		t.Fatalf("PendingCertificates(2) returned %v, expected only the epoch-2 certificate", pending)
	}
	pending = manager.PendingCertificates(1)
	if len(pending) != 0 {
		t.Fatalf("PendingCertificates(1) returned %v after epoch 1 passed, expected nothing", pending)
	}
}
