package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/config"
	"github.com/coinninja/dropbitd/internal/core/application"
	dbbadger "github.com/coinninja/dropbitd/internal/infrastructure/storage/db/badger"
	"github.com/coinninja/dropbitd/pkg/blocks"
	"github.com/coinninja/dropbitd/pkg/coinninja"
	"github.com/coinninja/dropbitd/pkg/keyutil"
)

type xpubSeedSource struct {
	xpub string
}

func (s xpubSeedSource) HasSeedMaterial() bool {
	return len(s.xpub) > 0
}

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	repoManager, err := dbbadger.NewRepoManager(dbDir, log.New())
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer repoManager.Close()

	coin := config.GetCoinScheme()
	if _, err := repoManager.RunTransaction(
		context.Background(), false,
		func(ctx context.Context) (interface{}, error) {
			if _, err := repoManager.WalletRepository().
				GetOrCreateWallet(ctx, coin); err != nil {
				return nil, err
			}
			_, err := repoManager.UserRepository().GetOrCreateUser(ctx)
			return nil, err
		},
	); err != nil {
		log.WithError(err).Panic("error while initializing wallet state")
	}

	apiClient := coinninja.NewService(coinninja.Opts{
		APIURL:       config.GetString(config.ApiEndpointKey),
		WalletID:     config.GetString(config.WalletIDKey),
		DeviceSecret: []byte(config.GetString(config.DeviceSecretKey)),
	})

	explorerSvc, err := config.GetExplorer()
	if err != nil {
		log.WithError(err).Panic("error while connecting to explorer")
	}

	xpub := config.GetString(config.AccountXPubKey)
	syncSvc := application.NewSyncService(application.SyncServiceOpts{
		RepoManager:     repoManager,
		APIClient:       apiClient,
		ExplorerSvc:     explorerSvc,
		SeedSource:      xpubSeedSource{xpub},
		Coin:            coin,
		StalenessWindow: config.GetDuration(config.StalenessWindowKey),
	})
	syncSvc.Start()
	defer syncSvc.Stop()

	var walletSvc application.WalletService
	if len(xpub) > 0 {
		deriver, err := keyutil.NewDeriver(
			xpub, coin.Purpose, config.GetChainParams(),
		)
		if err != nil {
			log.WithError(err).Panic("error while parsing account xpub")
		}
		walletSvc = application.NewWalletService(
			repoManager, apiClient, deriver, coin,
		)
	}

	blocksSvc := blocks.NewService(config.GetString(config.BlocksEndpointKey))
	blocksSvc.Start()
	defer blocksSvc.Stop()

	if port := config.GetInt(config.MetricsPortKey); port > 0 {
		go serveMetrics(port)
	}

	quit := make(chan struct{})
	go runTriggers(syncSvc, walletSvc, blocksSvc, quit)

	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	close(quit)

	log.Info("exiting")
}

// runTriggers enqueues syncs on the periodic ticker, on new block tips and
// on SIGHUP. The signal forces a full sync, the other triggers defer to the
// queue policies so an in-flight pass is not duplicated.
func runTriggers(
	syncSvc application.SyncService,
	walletSvc application.WalletService,
	blocksSvc blocks.Service,
	quit chan struct{},
) {
	ticker := time.NewTicker(config.GetDuration(config.SyncIntervalKey))
	defer ticker.Stop()

	poolTicker := time.NewTicker(1 * time.Hour)
	defer poolTicker.Stop()

	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			logResult(
				"periodic",
				syncSvc.EnqueueSync(application.SyncStandard, application.PolicyIfStale),
			)
		case <-poolTicker.C:
			if walletSvc != nil {
				go replenishPool(walletSvc)
			}
		case tip := <-blocksSvc.TipChannel():
			log.WithField("height", tip.Height).Debug("new block tip")
			logResult(
				"block",
				syncSvc.EnqueueSync(application.SyncStandard, application.PolicySkipIfInProgress),
			)
		case <-hupChan:
			logResult(
				"signal",
				syncSvc.EnqueueSync(application.SyncFull, application.PolicyAlways),
			)
		}
	}
}

func logResult(trigger string, results <-chan application.SyncResult) {
	go func() {
		res := <-results
		entry := log.WithField("trigger", trigger)
		if res.Err != nil {
			entry.WithError(res.Err).Warn("sync failed")
			return
		}
		if res.Skipped {
			entry.Debug("sync skipped")
			return
		}
		entry.WithFields(log.Fields{
			"persisted": res.Stats.TxsPersisted,
			"deleted":   res.Stats.TxsDeleted,
			"groomed":   res.Stats.TxsGroomed,
			"elapsed":   res.Stats.Duration.String(),
		}).Info("sync completed")
	}()
}

func replenishPool(walletSvc application.WalletService) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := walletSvc.ReplenishServerPool(ctx); err != nil {
		log.WithError(err).Debug("server pool replenishment skipped")
	}
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("metrics handler stopped")
	}
}
