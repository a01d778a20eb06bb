package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	bip39 "github.com/luxfi/go-bip39"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// DeriveHDKeys derives count private keys along m/44'/60'/0'/0/i from a BIP-39 mnemonic.
func DeriveHDKeys(mnemonic string, count int) ([]*ecdsa.PrivateKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if count <= 0 {
		count = 1
	}

	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	// m/44'/60'/0'/0
	change := masterKey
	for _, index := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
	} {
		change, err = change.Derive(index)
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive account path")
		}
	}

	keys := make([]*ecdsa.PrivateKey, 0, count)
	for i := 0; i < count; i++ {
		child, err := change.Derive(uint32(i))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive address index %d", i)
		}
		ecPrivKey, err := child.ECPrivKey()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get private key")
		}
		keys = append(keys, ecPrivKey.ToECDSA())
	}
	return keys, nil
}

// NewHDWallet builds a KeyWallet holding the first count accounts of the mnemonic.
func NewHDWallet(client SignerClient, mnemonic string, count int, l *zap.Logger) (*KeyWallet, error) {
	keys, err := DeriveHDKeys(mnemonic, count)
	if err != nil {
		return nil, err
	}
	return NewKeyWallet(client, keys, l), nil
}
