package ledger_test

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/chainparams"
	"github.com/orosnet/orosd/domain/ledger"
	"github.com/orosnet/orosd/domain/ledger/datastructures/utxostore"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/orosnet/orosd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

func openLedger(t *testing.T, path string,
	keyPair *secp256k1.SchnorrKeyPair) (ledger.Ledger, *ldb.LevelDB) {

	databaseContext, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	params := chainparams.SimnetParams
	l, err := ledger.New(&params, databaseContext, keyPair)
	if err != nil {
		t.Fatalf("ledger.New: %+v", err)
	}
	return l, databaseContext
}

func TestNewSeedsGenesisState(t *testing.T) {
	l, databaseContext := openLedger(t, t.TempDir(), nil)
	defer databaseContext.Close()

	tipHash, err := l.Tip()
	if err != nil {
		t.Fatalf("Tip: %+v", err)
	}
	if !tipHash.Equal(chainparams.SimnetParams.GenesisHash) {
		t.Fatalf("a fresh ledger's tip is %s, expected the genesis %s",
			tipHash, chainparams.SimnetParams.GenesisHash)
	}

	tipHeader, err := l.TipHeader()
	if err != nil {
		t.Fatalf("TipHeader: %+v", err)
	}
	position := tipHeader.EpochOrSlot()
	if !position.IsBoundary || position.Epoch != 0 {
		t.Fatalf("a fresh ledger's tip sits on %s, expected the epoch 0 boundary", position)
	}

	block, err := l.Block(chainparams.SimnetParams.GenesisHash)
	if err != nil {
		t.Fatalf("Block: %+v", err)
	}
	if !reflect.DeepEqual(block, chainparams.SimnetParams.GenesisBlock) {
		t.Fatalf("the stored genesis block differs from the hardcoded one:\n%s\nvs\n%s",
			spew.Sdump(block), spew.Sdump(chainparams.SimnetParams.GenesisBlock))
	}
}

func TestReopenSkipsReseeding(t *testing.T) {
	path := t.TempDir()
	l, databaseContext := openLedger(t, path, nil)

	// A write outside the genesis state must survive a reopen: a
	// seeded database is never reseeded.
	writer := hashes.NewTransactionIDWriter()
	writer.InfallibleWrite([]byte("reopen-marker"))
	outpoint := &externalapi.DomainOutpoint{
		TransactionID: *externalapi.NewDomainTransactionIDFromByteArray(writer.Finalize().ByteArray()),
	}
	recipientWriter := hashes.NewStakeholderIDWriter()
	recipientWriter.InfallibleWrite([]byte("reopen-recipient"))
	recipient := externalapi.NewStakeholderIDFromByteArray(recipientWriter.Finalize().ByteArray())
	err := utxostore.New().AddEntry(databaseContext, outpoint, &externalapi.UTXOEntry{
		Amount:    42,
		Recipient: *recipient,
	})
	if err != nil {
		t.Fatalf("AddEntry: %+v", err)
	}
	commitment, err := l.UTXOCommitment()
	if err != nil {
		t.Fatalf("UTXOCommitment: %+v", err)
	}
	err = databaseContext.Close()
	if err != nil {
		t.Fatalf("Close: %+v", err)
	}

	reopened, databaseContext := openLedger(t, path, nil)
	defer databaseContext.Close()
	reopenedCommitment, err := reopened.UTXOCommitment()
	if err != nil {
		t.Fatalf("UTXOCommitment: %+v", err)
	}
	if !reopenedCommitment.Equal(commitment) {
		t.Fatalf("the UTXO commitment is %s after a reopen, expected %s",
			reopenedCommitment, commitment)
	}
}

func TestSlotLeader(t *testing.T) {
	l, databaseContext := openLedger(t, t.TempDir(), nil)
	defer databaseContext.Close()

	schedule := chainparams.SimnetParams.GenesisBlock.Body.Leaders
	leader, err := l.SlotLeader(externalapi.SlotID{Epoch: 0, Slot: 3})
	if err != nil {
		t.Fatalf("SlotLeader: %+v", err)
	}
	if !leader.Equal(&schedule[3]) {
		t.Fatalf("slot (0, 3) is led by %s, the genesis schedule names %s", leader, schedule[3])
	}

	_, err = l.SlotLeader(externalapi.SlotID{Epoch: 7, Slot: 0})
	var unknownLeaders ruleerrors.ErrUnknownLeaders
	if !errors.As(err, &unknownLeaders) {
		t.Fatalf("SlotLeader for an unelected epoch returned %+v, expected ErrUnknownLeaders", err)
	}

	_, err = l.SlotLeader(externalapi.SlotID{Epoch: 0, Slot: chainparams.SimnetParams.EpochSlotCount})
	if err == nil {
		t.Fatal("SlotLeader served a slot outside the epoch's schedule")
	}
}

func TestAddTransaction(t *testing.T) {
	l, databaseContext := openLedger(t, t.TempDir(), nil)
	defer databaseContext.Close()

	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	publicKey, err := blocksigning.SerializePublicKey(keyPair)
	if err != nil {
		t.Fatalf("SerializePublicKey: %+v", err)
	}
	owner := blocksigning.StakeholderIDFromPublicKey(publicKey)

	writer := hashes.NewTransactionIDWriter()
	writer.InfallibleWrite([]byte("spendable"))
	outpoint := externalapi.DomainOutpoint{
		TransactionID: *externalapi.NewDomainTransactionIDFromByteArray(writer.Finalize().ByteArray()),
	}
	err = utxostore.New().AddEntry(databaseContext, &outpoint, &externalapi.UTXOEntry{
		Amount:    100,
		Recipient: *owner,
	})
	if err != nil {
		t.Fatalf("AddEntry: %+v", err)
	}

	recipientWriter := hashes.NewStakeholderIDWriter()
	recipientWriter.InfallibleWrite([]byte("recipient"))
	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.DomainTransactionInput{
			{PreviousOutpoint: outpoint},
		},
		Outputs: []*externalapi.DomainTransactionOutput{
			{
				Value:     100,
				Recipient: *externalapi.NewStakeholderIDFromByteArray(recipientWriter.Finalize().ByteArray()),
			},
		},
	}
	txID := consensushashing.TransactionID(tx)
	signingHash, err := externalapi.NewDomainHashFromByteSlice(txID.ByteSlice())
	if err != nil {
		t.Fatalf("NewDomainHashFromByteSlice: %+v", err)
	}
	signature, err := blocksigning.SignHash(keyPair, signingHash)
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	tx.Inputs[0].Signature = append(append([]byte{}, publicKey...), signature...)

	arrival := externalapi.NewEpochSlot(externalapi.SlotID{Epoch: 0, Slot: 1})
	err = l.AddTransaction(tx, *arrival)
	if err != nil {
		t.Fatalf("AddTransaction: %+v", err)
	}
	err = l.AddTransaction(tx, *arrival)
	if err == nil {
		t.Fatal("AddTransaction admitted the same transaction twice")
	}
}

func TestAddTransactionRejectsOverspend(t *testing.T) {
	l, databaseContext := openLedger(t, t.TempDir(), nil)
	defer databaseContext.Close()

	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	publicKey, err := blocksigning.SerializePublicKey(keyPair)
	if err != nil {
		t.Fatalf("SerializePublicKey: %+v", err)
	}
	owner := blocksigning.StakeholderIDFromPublicKey(publicKey)

	writer := hashes.NewTransactionIDWriter()
	writer.InfallibleWrite([]byte("small-output"))
	outpoint := externalapi.DomainOutpoint{
		TransactionID: *externalapi.NewDomainTransactionIDFromByteArray(writer.Finalize().ByteArray()),
	}
	err = utxostore.New().AddEntry(databaseContext, &outpoint, &externalapi.UTXOEntry{
		Amount:    10,
		Recipient: *owner,
	})
	if err != nil {
		t.Fatalf("AddEntry: %+v", err)
	}

	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.DomainTransactionInput{
			{PreviousOutpoint: outpoint},
		},
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: 11, Recipient: *owner},
		},
	}
	txID := consensushashing.TransactionID(tx)
	signingHash, err := externalapi.NewDomainHashFromByteSlice(txID.ByteSlice())
	if err != nil {
		t.Fatalf("NewDomainHashFromByteSlice: %+v", err)
	}
	signature, err := blocksigning.SignHash(keyPair, signingHash)
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}
	tx.Inputs[0].Signature = append(append([]byte{}, publicKey...), signature...)

	arrival := externalapi.NewEpochSlot(externalapi.SlotID{Epoch: 0, Slot: 1})
	err = l.AddTransaction(tx, *arrival)
	if !errors.Is(err, ruleerrors.ErrOverspend) {
		t.Fatalf("AddTransaction returned %+v, expected ErrOverspend", err)
	}
}

func TestQueuePayloadData(t *testing.T) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	l, databaseContext := openLedger(t, t.TempDir(), keyPair)
	defer databaseContext.Close()

	err = l.QueuePayloadData([]byte("shared seed commitment"))
	if err != nil {
		t.Fatalf("QueuePayloadData: %+v", err)
	}

	keyless, keylessContext := openLedger(t, t.TempDir(), nil)
	defer keylessContext.Close()
	err = keyless.QueuePayloadData([]byte("shared seed commitment"))
	if err == nil {
		t.Fatal("QueuePayloadData succeeded on a node without a signing key")
	}
}

func TestSubmitCertificate(t *testing.T) {
	l, databaseContext := openLedger(t, t.TempDir(), nil)
	defer databaseContext.Close()

	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	publicKey, err := blocksigning.SerializePublicKey(keyPair)
	if err != nil {
		t.Fatalf("SerializePublicKey: %+v", err)
	}
	delegateWriter := hashes.NewStakeholderIDWriter()
	delegateWriter.InfallibleWrite([]byte("delegate"))
	certificate := &externalapi.DelegationCertificate{
		Issuer:    *blocksigning.StakeholderIDFromPublicKey(publicKey),
		Delegate:  *externalapi.NewStakeholderIDFromByteArray(delegateWriter.Finalize().ByteArray()),
		Epoch:     1,
		IssuerKey: publicKey,
	}
	certificate.Signature, err = blocksigning.SignHash(keyPair,
		consensushashing.CertificateSigningHash(certificate))
	if err != nil {
		t.Fatalf("SignHash: %+v", err)
	}

	err = l.SubmitCertificate(certificate)
	if err != nil {
		t.Fatalf("SubmitCertificate: %+v", err)
	}

	certificate.Signature = make([]byte, 64)
	err = l.SubmitCertificate(certificate)
	if err == nil {
		t.Fatal("SubmitCertificate accepted a certificate with a broken signature")
	}
}
