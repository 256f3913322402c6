package keyutil_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/coinninja/dropbitd/pkg/keyutil"
)

func TestParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected keyutil.Path
	}{
		{
			name: "segwit_receive",
			path: "m/84'/0'/0'/0/12",
			expected: keyutil.Path{
				Purpose: 84, CoinType: 0, Account: 0, Chain: 0, Index: 12,
			},
		},
		{
			name: "legacy_change",
			path: "m/44'/1'/0'/1/3",
			expected: keyutil.Path{
				Purpose: 44, CoinType: 1, Account: 0, Chain: 1, Index: 3,
			},
		},
		{
			name: "without_master_prefix",
			path: "84'/0'/0'/0/0",
			expected: keyutil.Path{
				Purpose: 84, CoinType: 0, Account: 0, Chain: 0, Index: 0,
			},
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, err := keyutil.ParsePath(tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.expected, path)
			require.Equal(t, tt.expected.String(), path.String())
		})
	}
}

func TestFailingParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{name: "too_few_components", path: "m/84'/0'/0'/0"},
		{name: "too_many_components", path: "m/84'/0'/0'/0/0/0"},
		{name: "unhardened_purpose", path: "m/84/0'/0'/0/0"},
		{name: "hardened_chain", path: "m/84'/0'/0'/0'/0"},
		{name: "hardened_index", path: "m/84'/0'/0'/0/0'"},
		{name: "not_a_number", path: "m/84'/0'/0'/0/abc"},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := keyutil.ParsePath(tt.path)
			require.Error(t, err)
		})
	}

	t.Run("null_path", func(t *testing.T) {
		t.Parallel()

		_, err := keyutil.ParsePath("")
		require.EqualError(t, err, keyutil.ErrNullDerivationPath.Error())
	})
}

// testXPub builds an account-level public key from a fixed seed, good enough
// for exercising the chain/index derivation.
func testXPub(t *testing.T) string {
	t.Helper()

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	neutered, err := master.Neuter()
	require.NoError(t, err)
	return neutered.String()
}

func TestDeriver(t *testing.T) {
	t.Parallel()

	t.Run("segwit", func(t *testing.T) {
		t.Parallel()

		deriver, err := keyutil.NewDeriver(testXPub(t), 84, &chaincfg.MainNetParams)
		require.NoError(t, err)

		addr, err := deriver.Derive(0, 0)
		require.NoError(t, err)
		require.Regexp(t, "^bc1q", addr)

		other, err := deriver.Derive(0, 1)
		require.NoError(t, err)
		require.NotEqual(t, addr, other)

		// derivation is deterministic
		again, err := deriver.Derive(0, 0)
		require.NoError(t, err)
		require.Equal(t, addr, again)
	})

	t.Run("legacy", func(t *testing.T) {
		t.Parallel()

		deriver, err := keyutil.NewDeriver(testXPub(t), 44, &chaincfg.MainNetParams)
		require.NoError(t, err)

		addr, err := deriver.Derive(1, 0)
		require.NoError(t, err)
		require.Regexp(t, "^1", addr)
	})
}

func TestFailingNewDeriver(t *testing.T) {
	t.Parallel()

	_, err := keyutil.NewDeriver("not-an-xpub", 84, &chaincfg.MainNetParams)
	require.Error(t, err)

	_, err = keyutil.NewDeriver(testXPub(t), 49, &chaincfg.MainNetParams)
	require.EqualError(t, err, keyutil.ErrUnsupportedPurpose.Error())
}
