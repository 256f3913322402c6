package keyutil

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// ErrUnsupportedPurpose ...
var ErrUnsupportedPurpose = errors.New("derivation purpose is not supported")

// Deriver derives public addresses from a watch-only account extended public
// key. Signing stays with the external wallet-crypto library, the sync engine
// only needs the address strings at each chain/index slot.
type Deriver struct {
	accountKey *hdkeychain.ExtendedKey
	purpose    uint32
	params     *chaincfg.Params
}

// NewDeriver returns a Deriver for the given account xpub, already derived at
// m/purpose'/coinType'/account'.
func NewDeriver(
	accountXPub string, purpose uint32, params *chaincfg.Params,
) (*Deriver, error) {
	accountKey, err := hdkeychain.NewKeyFromString(accountXPub)
	if err != nil {
		return nil, err
	}
	if purpose != 44 && purpose != 84 {
		return nil, ErrUnsupportedPurpose
	}

	return &Deriver{
		accountKey: accountKey,
		purpose:    purpose,
		params:     params,
	}, nil
}

// Derive returns the address at the given chain/index slot. Purpose 84 yields
// a P2WPKH address, purpose 44 a legacy P2PKH one.
func (d *Deriver) Derive(chain, index uint32) (string, error) {
	chainKey, err := d.accountKey.Derive(chain)
	if err != nil {
		return "", err
	}
	childKey, err := chainKey.Derive(index)
	if err != nil {
		return "", err
	}
	pubKey, err := childKey.ECPubKey()
	if err != nil {
		return "", err
	}

	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	if d.purpose == 84 {
		addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, d.params)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil
	}

	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, d.params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
