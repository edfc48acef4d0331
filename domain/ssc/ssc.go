// Package ssc implements the shared-seed computation payload
// collaborator. Stakeholders contribute signed payload entries which
// ride along in main block bodies; the ledger core only cares that the
// entries it applies are well-formed and correctly signed.
package ssc

import (
	"sync"

	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/ledger/model"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/ruleerrors"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/pkg/errors"
)

// entrySignatureSize is the size of a payload entry signature: the
// contributor's serialized public key followed by a Schnorr signature
// over the entry's signing hash.
const entrySignatureSize = blocksigning.SchnorrPublicKeySize + blocksigning.SchnorrSignatureSize

type payloadManager struct {
	mtx     sync.Mutex
	pending []*externalapi.PayloadEntry

	keyPair     *secp256k1.SchnorrKeyPair
	stakeholder *externalapi.StakeholderID
}

// New instantiates a new PayloadManager. keyPair may be nil for nodes
// that do not contribute payload entries of their own.
func New(keyPair *secp256k1.SchnorrKeyPair) (model.PayloadManager, error) {
	manager := &payloadManager{keyPair: keyPair}
	if keyPair != nil {
		publicKeyBytes, err := blocksigning.SerializePublicKey(keyPair)
		if err != nil {
			return nil, err
		}
		manager.stakeholder = blocksigning.StakeholderIDFromPublicKey(publicKeyBytes)
	}
	return manager, nil
}

func (pm *payloadManager) VerifyPayloads(strict bool, blocks []externalapi.Block) error {
	for _, block := range blocks {
		mainBlock, ok := block.(*externalapi.MainBlock)
		if !ok {
			continue
		}
		if mainBlock.Body.Payload == nil {
			return errors.Wrapf(ruleerrors.ErrBadPayload,
				"block at slot %s has no payload", mainBlock.MainHeader.Slot)
		}
		for i, entry := range mainBlock.Body.Payload.Entries {
			err := pm.verifyEntry(strict, entry)
			if err != nil {
				return errors.Wrapf(err, "payload entry %d of block at slot %s",
					i, mainBlock.MainHeader.Slot)
			}
		}
	}
	return nil
}

func (pm *payloadManager) verifyEntry(strict bool, entry *externalapi.PayloadEntry) error {
	if len(entry.Signature) != entrySignatureSize {
		return errors.Wrapf(ruleerrors.ErrBadPayload,
			"signature is %d bytes while %d are expected",
			len(entry.Signature), entrySignatureSize)
	}
	if !strict {
		return nil
	}

	publicKeyBytes := entry.Signature[:blocksigning.SchnorrPublicKeySize]
	signatureBytes := entry.Signature[blocksigning.SchnorrPublicKeySize:]
	signer := blocksigning.StakeholderIDFromPublicKey(publicKeyBytes)
	if !signer.Equal(&entry.Stakeholder) {
		return errors.Wrapf(ruleerrors.ErrBadPayload,
			"signing key belongs to stakeholder %s while the entry claims %s",
			signer, entry.Stakeholder)
	}
	valid, err := blocksigning.VerifyHash(publicKeyBytes, entrySigningHash(entry), signatureBytes)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "malformed signature: %s", err)
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrBadPayload,
			"invalid signature by stakeholder %s", entry.Stakeholder)
	}
	return nil
}

func (pm *payloadManager) LocalPayload(slot externalapi.SlotID) *externalapi.ConsensusPayload {
	pm.mtx.Lock()
	defer pm.mtx.Unlock()

	if len(pm.pending) == 0 {
		return nil
	}
	entries := make([]*externalapi.PayloadEntry, len(pm.pending))
	copy(entries, pm.pending)
	log.Debugf("contributing %d payload entries for slot %s", len(entries), slot)
	return &externalapi.ConsensusPayload{Entries: entries}
}

// QueueData signs the given opaque payload data with the node's
// keypair and queues the resulting entry for inclusion in the next
// block this node produces.
func (pm *payloadManager) QueueData(data []byte) error {
	if pm.keyPair == nil {
		return errors.New("cannot queue payload data without a keypair")
	}
	entry := &externalapi.PayloadEntry{
		Stakeholder: *pm.stakeholder,
		Data:        data,
	}
	signature, err := blocksigning.SignHash(pm.keyPair, entrySigningHash(entry))
	if err != nil {
		return err
	}
	publicKeyBytes, err := blocksigning.SerializePublicKey(pm.keyPair)
	if err != nil {
		return err
	}
	entry.Signature = append(publicKeyBytes, signature...)

	pm.mtx.Lock()
	defer pm.mtx.Unlock()
	pm.pending = append(pm.pending, entry)
	return nil
}

// ClearQueued drops all queued payload entries. Called once a block
// carrying them has been applied.
func (pm *payloadManager) ClearQueued() {
	pm.mtx.Lock()
	defer pm.mtx.Unlock()
	pm.pending = nil
}

func entrySigningHash(entry *externalapi.PayloadEntry) *externalapi.DomainHash {
	writer := hashes.NewPayloadEntryWriter()
	writer.InfallibleWrite(entry.Stakeholder.ByteSlice())
	writer.InfallibleWrite(entry.Data)
	return writer.Finalize()
}
