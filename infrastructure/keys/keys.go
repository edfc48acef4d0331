// Package keys loads and stores the stakeholder signing key orosd uses
// to sign the blocks, payload entries and certificates it produces.
package keys

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

// LoadKeyPair reads a hex-encoded Schnorr private key from the given
// file. It returns (nil, nil) when the file does not exist, so a node
// without a key file simply runs without block production.
func LoadKeyPair(path string) (*secp256k1.SchnorrKeyPair, error) {
	keyHex, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read key file %s", path)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(keyHex)))
	if err != nil {
		return nil, errors.Wrapf(err, "key file %s is not valid hex", path)
	}
	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(keyBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "key file %s does not hold a valid private key", path)
	}
	return keyPair, nil
}

// StoreKeyPair writes the given keypair's private key to the given
// file, hex encoded, readable by the owner only. It refuses to
// overwrite an existing file.
func StoreKeyPair(keyPair *secp256k1.SchnorrKeyPair, path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("key file %s already exists", path)
	}
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return err
	}
	serialized := keyPair.SerializePrivateKey()
	keyHex := hex.EncodeToString(serialized[:])
	return ioutil.WriteFile(path, []byte(keyHex+"\n"), 0600)
}
