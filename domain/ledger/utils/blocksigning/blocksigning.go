package blocksigning

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/hashes"
	"github.com/pkg/errors"
)

// SchnorrSignatureSize is the length in bytes of a serialized Schnorr
// signature.
const SchnorrSignatureSize = 64

// SchnorrPublicKeySize is the length in bytes of a serialized Schnorr
// public key.
const SchnorrPublicKeySize = 32

// SignHash signs the given hash with the given keypair and returns the
// serialized signature.
func SignHash(keyPair *secp256k1.SchnorrKeyPair, hash *externalapi.DomainHash) ([]byte, error) {
	secpHash := secp256k1.Hash(*hash.ByteArray())
	signature, err := keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serialized := signature.Serialize()
	return serialized[:], nil
}

// VerifyHash checks the given serialized signature over the given hash
// against the given serialized public key.
func VerifyHash(publicKeyBytes []byte, hash *externalapi.DomainHash, signatureBytes []byte) (bool, error) {
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKeyBytes)
	if err != nil {
		return false, errors.WithStack(err)
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signatureBytes)
	if err != nil {
		return false, errors.WithStack(err)
	}
	secpHash := secp256k1.Hash(*hash.ByteArray())
	return publicKey.SchnorrVerify(&secpHash, signature), nil
}

// StakeholderIDFromPublicKey derives a stakeholder ID from a serialized
// public key.
func StakeholderIDFromPublicKey(publicKeyBytes []byte) *externalapi.StakeholderID {
	writer := hashes.NewStakeholderIDWriter()
	writer.InfallibleWrite(publicKeyBytes)
	hash := writer.Finalize()
	return externalapi.NewStakeholderIDFromByteArray(hash.ByteArray())
}

// SerializePublicKey returns the serialized form of the given keypair's
// public key.
func SerializePublicKey(keyPair *secp256k1.SchnorrKeyPair) ([]byte, error) {
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serialized, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serialized[:], nil
}
