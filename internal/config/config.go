package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/explorer"
	"github.com/coinninja/dropbitd/pkg/explorer/esplora"
)

const (
	// DatadirKey is the local data directory to store the internal state of
	// the daemon
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// ApiEndpointKey is the endpoint of the wallet coordination API
	ApiEndpointKey = "API_ENDPOINT"
	// WalletIDKey is the server-side wallet id used in request signatures
	WalletIDKey = "WALLET_ID"
	// DeviceSecretKey is the secret used to sign API requests. When empty
	// the daemon talks to the API unauthenticated
	DeviceSecretKey = "DEVICE_SECRET"
	// ExplorerEndpointKey is the endpoint where the Esplora REST API is
	// listening
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// BlocksEndpointKey is the websocket endpoint streaming new block tips
	BlocksEndpointKey = "BLOCKS_ENDPOINT"
	// NetworkKey is the network to use. Either "mainnet" or "testnet"
	NetworkKey = "NETWORK"
	// AccountXPubKey is the extended public key of the wallet account,
	// already derived at m/purpose'/coinType'/account'
	AccountXPubKey = "ACCOUNT_XPUB"
	// PurposeKey is the BIP purpose of the wallet addresses. Either 44 or 84
	PurposeKey = "PURPOSE"
	// SyncIntervalKey is the interval in seconds between periodic syncs
	SyncIntervalKey = "SYNC_INTERVAL"
	// StalenessWindowKey is the window in seconds within which an ifStale
	// sync is skipped
	StalenessWindowKey = "STALENESS_WINDOW"
	// MetricsPortKey is the port where the prometheus metrics handler will
	// listen on. Zero disables the handler
	MetricsPortKey = "METRICS_PORT"

	DbLocation = "db"

	MainnetName = "mainnet"
	TestnetName = "testnet"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("dropbitd", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("DROPBIT")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(ApiEndpointKey, "https://api.coinninja.com/api/v1")
	vip.SetDefault(ExplorerEndpointKey, "https://blockstream.info/api")
	vip.SetDefault(BlocksEndpointKey, "wss://socket.coinninja.com/blocks")
	vip.SetDefault(NetworkKey, MainnetName)
	vip.SetDefault(PurposeKey, domain.SegwitPurpose)
	vip.SetDefault(SyncIntervalKey, 30)
	vip.SetDefault(StalenessWindowKey, 30)
	vip.SetDefault(MetricsPortKey, 9469)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDuration returns the value of the given key in seconds.
func GetDuration(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the given key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

// GetDatadir ...
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetChainParams returns the btcd chain parameters of the configured network.
func GetChainParams() *chaincfg.Params {
	if GetString(NetworkKey) == TestnetName {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// GetCoinScheme returns the derivation scheme of the configured network and
// purpose.
func GetCoinScheme() domain.CoinScheme {
	coinType := uint32(domain.MainnetCoinType)
	if GetString(NetworkKey) == TestnetName {
		coinType = domain.TestnetCoinType
	}
	return domain.CoinScheme{
		Purpose:  uint32(GetInt(PurposeKey)),
		CoinType: coinType,
		Account:  domain.DefaultAccount,
	}
}

// GetExplorer ...
func GetExplorer() (explorer.Service, error) {
	return esplora.NewService(GetString(ExplorerEndpointKey))
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	networkName := GetString(NetworkKey)
	if networkName != MainnetName && networkName != TestnetName {
		return fmt.Errorf(
			"network must be either '%s' or '%s'", MainnetName, TestnetName,
		)
	}

	purpose := GetInt(PurposeKey)
	if purpose != domain.LegacyPurpose && purpose != domain.SegwitPurpose {
		return fmt.Errorf(
			"purpose must be either %d or %d",
			domain.LegacyPurpose, domain.SegwitPurpose,
		)
	}

	for _, key := range []string{ApiEndpointKey, ExplorerEndpointKey} {
		if _, err := url.Parse(GetString(key)); err != nil {
			return fmt.Errorf("%s is not a valid url: %s", key, err)
		}
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(filepath.Join(GetDatadir(), DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
