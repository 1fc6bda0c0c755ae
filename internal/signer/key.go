package signer

import (
	"errors"
	"strings"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	bip39 "github.com/cosmos/go-bip39"
)

// ErrInvalidMnemonic is returned when the supplied mnemonic fails its
// BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("signer: invalid BIP-39 mnemonic")

// DefaultDerivationPath is the standard Cosmos secp256k1 HD path.
const DefaultDerivationPath = "m/44'/118'/0'/0/0"

// PrivKeyFromMnemonic derives a secp256k1 private key from a BIP-39
// English mnemonic (spec.md §6: SIGNING_KEY_MNEMONIC), validating the
// checksum before deriving so a typo'd mnemonic fails fast as a
// key-derivation error (spec.md §7 kind 2) rather than silently
// producing the wrong key.
func PrivKeyFromMnemonic(mnemonic string) (cryptotypes.PrivKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, err
	}

	master, ch := hd.ComputeMastersFromSeed(seed)
	derived, err := hd.DerivePrivateKeyForPath(master, ch, DefaultDerivationPath)
	if err != nil {
		return nil, err
	}

	algo := hd.Secp256k1
	return algo.Generate()(derived), nil
}
