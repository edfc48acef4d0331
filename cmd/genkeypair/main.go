package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/infrastructure/keys"
	"github.com/tyler-smith/go-bip39"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		printErrorAndExit(err)
	}

	mnemonic, keyPair, err := generateKeyPair()
	if err != nil {
		printErrorAndExit(err)
	}

	publicKey, err := blocksigning.SerializePublicKey(keyPair)
	if err != nil {
		printErrorAndExit(err)
	}
	stakeholder := blocksigning.StakeholderIDFromPublicKey(publicKey)

	fmt.Printf("Mnemonic:       %s\n", mnemonic)
	fmt.Printf("Private key:    %x\n", keyPair.SerializePrivateKey()[:])
	fmt.Printf("Public key:     %s\n", hex.EncodeToString(publicKey))
	fmt.Printf("Stakeholder ID: %s\n", stakeholder)

	if cfg.KeyFile != "" {
		err = keys.StoreKeyPair(keyPair, cfg.KeyFile)
		if err != nil {
			printErrorAndExit(err)
		}
		fmt.Printf("Private key written to %s\n", cfg.KeyFile)
	}
}

// generateKeyPair draws a fresh mnemonic and derives a Schnorr key
// pair from its seed. The derivation retries on the negligible chance
// that the seed bytes fall outside the curve order.
func generateKeyPair() (string, *secp256k1.SchnorrKeyPair, error) {
	for {
		entropy, err := bip39.NewEntropy(256)
		if err != nil {
			return "", nil, err
		}
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return "", nil, err
		}
		seed := bip39.NewSeed(mnemonic, "")
		keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(seed[:32])
		if err != nil {
			continue
		}
		return mnemonic, keyPair, nil
	}
}

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}
