package keyutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

var (
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New("derivation path is malformed")
)

// Path is the internal representation of a full BIP44-style derivation path
// m/purpose'/coinType'/account'/chain/index.
type Path struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
	Chain    uint32
	Index    uint32
}

// ParsePath converts a derivation path string in canonical form to the
// internal representation. The first three components must be hardened, the
// last two must not.
func ParsePath(strPath string) (Path, error) {
	if strPath == "" {
		return Path{}, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if len(elems) > 0 && strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) != 5 {
		return Path{}, ErrMalformedDerivationPath
	}

	components := make([]uint32, 0, 5)
	for i, elem := range elems {
		elem = strings.TrimSpace(elem)
		hardened := strings.HasSuffix(elem, "'")
		if hardened {
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}
		if hardened != (i < 3) {
			return Path{}, ErrMalformedDerivationPath
		}

		value, err := strconv.ParseUint(elem, 10, 32)
		if err != nil {
			return Path{}, fmt.Errorf("invalid elem '%s' in path", elem)
		}
		if value >= uint64(hdkeychain.HardenedKeyStart) {
			return Path{}, ErrMalformedDerivationPath
		}
		components = append(components, uint32(value))
	}

	return Path{
		Purpose:  components[0],
		CoinType: components[1],
		Account:  components[2],
		Chain:    components[3],
		Index:    components[4],
	}, nil
}

// String converts the path to its canonical representation.
func (p Path) String() string {
	return fmt.Sprintf(
		"m/%d'/%d'/%d'/%d/%d",
		p.Purpose, p.CoinType, p.Account, p.Chain, p.Index,
	)
}
