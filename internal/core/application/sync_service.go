package application

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/internal/core/ports"
	"github.com/coinninja/dropbitd/pkg/coinninja"
	"github.com/coinninja/dropbitd/pkg/explorer"
	"github.com/coinninja/dropbitd/pkg/stats"
)

// SeedSource reports whether the wallet recovery material is available to the
// external wallet-crypto library. The sync engine never reads the material
// itself, it only refuses to run without it.
type SeedSource interface {
	HasSeedMaterial() bool
}

// SyncService is the serializing scheduler of the reconciliation pipeline.
// Any trigger may enqueue a sync; at most one pipeline executes at a time and
// queued requests run in FIFO order behind the single in-flight slot.
type SyncService interface {
	Start()
	Stop()
	// EnqueueSync admits a sync request and returns the channel its terminal
	// result is delivered on, exactly once per request.
	EnqueueSync(typ SyncType, policy SyncPolicy) <-chan SyncResult
}

type syncRequest struct {
	typ    SyncType
	result chan SyncResult
}

type syncService struct {
	repoManager     ports.RepoManager
	apiClient       coinninja.Service
	explorerSvc     explorer.Service
	seedSource      SeedSource
	coin            domain.CoinScheme
	stalenessWindow time.Duration

	queue chan *syncRequest
	quit  chan struct{}
	wg    sync.WaitGroup

	mutex        sync.Mutex
	started      bool
	pending      int
	lastSyncTime time.Time
}

// SyncServiceOpts defines the dependencies needed for creating a SyncService
// with NewSyncService.
type SyncServiceOpts struct {
	RepoManager     ports.RepoManager
	APIClient       coinninja.Service
	ExplorerSvc     explorer.Service
	SeedSource      SeedSource
	Coin            domain.CoinScheme
	StalenessWindow time.Duration
}

// NewSyncService returns an idle SyncService. Use Start and Stop methods to
// manage it.
func NewSyncService(opts SyncServiceOpts) SyncService {
	window := opts.StalenessWindow
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	return &syncService{
		repoManager:     opts.RepoManager,
		apiClient:       opts.APIClient,
		explorerSvc:     opts.ExplorerSvc,
		seedSource:      opts.SeedSource,
		coin:            opts.Coin,
		stalenessWindow: window,
		queue:           make(chan *syncRequest, syncQueueMaxSize),
		quit:            make(chan struct{}),
	}
}

// Start spawns the single worker goroutine draining the queue.
func (s *syncService) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.worker()
}

// Stop stops admitting requests, waits for the in-flight pass to run to
// completion and resolves any queued request with ErrServiceStopped. A pass
// is never canceled mid-flight, partial cancellation between persistence and
// ledger updates would leave the store inconsistent.
func (s *syncService) Stop() {
	s.mutex.Lock()
	if !s.started {
		s.mutex.Unlock()
		return
	}
	s.started = false
	s.mutex.Unlock()

	close(s.quit)
	s.wg.Wait()
}

func (s *syncService) EnqueueSync(typ SyncType, policy SyncPolicy) <-chan SyncResult {
	result := make(chan SyncResult, 1)

	s.mutex.Lock()
	if !s.started {
		s.mutex.Unlock()
		result <- SyncResult{Type: typ, Err: ErrServiceStopped}
		return result
	}

	switch policy {
	case PolicySkipIfInProgress:
		if s.pending > 0 {
			s.mutex.Unlock()
			stats.SyncsSkipped.Inc()
			result <- SyncResult{Type: typ, Skipped: true, Err: ErrSyncInProgress}
			return result
		}
	case PolicyIfStale:
		if !s.lastSyncTime.IsZero() &&
			time.Since(s.lastSyncTime) < s.stalenessWindow {
			s.mutex.Unlock()
			result <- SyncResult{Type: typ, Skipped: true}
			return result
		}
	}
	s.mutex.Unlock()

	if err := s.checkPreconditions(); err != nil {
		stats.SyncsFailed.WithLabelValues(errorClass(err)).Inc()
		result <- SyncResult{Type: typ, Err: err}
		return result
	}

	req := &syncRequest{typ: typ, result: result}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	// Stop may have drained the queue while preconditions were checked, a
	// push past this point would never be resolved.
	if !s.started {
		result <- SyncResult{Type: typ, Err: ErrServiceStopped}
		return result
	}
	select {
	case s.queue <- req:
		s.pending++
		stats.QueueDepth.Set(float64(s.pending))
	default:
		result <- SyncResult{Type: typ, Err: ErrSyncQueueFull}
	}
	return result
}

// checkPreconditions fails fast, before any network I/O, when the local state
// cannot possibly support a sync pass.
func (s *syncService) checkPreconditions() error {
	if s.seedSource != nil && !s.seedSource.HasSeedMaterial() {
		return ErrMissingSeedMaterial
	}

	_, err := s.repoManager.RunTransaction(
		context.Background(), readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			wallet, err := s.repoManager.WalletRepository().GetWallet(ctx)
			if err != nil {
				return nil, err
			}
			if wallet.IsZero() {
				return nil, ErrWalletNotInitialized
			}

			user, err := s.repoManager.UserRepository().GetUser(ctx)
			if err != nil {
				return nil, err
			}
			if !user.IsZero() && user.Status == domain.UserStatusDeverified {
				return nil, ErrUserDeverified
			}
			return nil, nil
		},
	)
	return err
}

func (s *syncService) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			s.drain()
			return
		case req := <-s.queue:
			res := s.runPass(req)

			s.mutex.Lock()
			s.pending--
			stats.QueueDepth.Set(float64(s.pending))
			if res.Err == nil {
				s.lastSyncTime = time.Now()
			}
			s.mutex.Unlock()

			req.result <- res
		}
	}
}

func (s *syncService) drain() {
	for {
		select {
		case req := <-s.queue:
			s.mutex.Lock()
			s.pending--
			s.mutex.Unlock()
			req.result <- SyncResult{Type: req.typ, Err: ErrServiceStopped}
		default:
			return
		}
	}
}

// runPass executes the full reconciliation pipeline for one admitted request:
// fetch, classify, persist, detect failures. Once started it runs to
// completion or to a terminal error.
func (s *syncService) runPass(req *syncRequest) SyncResult {
	res := SyncResult{Type: req.typ}
	start := time.Now()
	stats.SyncsStarted.WithLabelValues(req.typ.String()).Inc()

	logger := log.WithField("type", req.typ.String())
	logger.Debug("sync: pass started")

	passStats, err := s.pipeline(context.Background(), req.typ)
	res.Stats = passStats
	res.Stats.Duration = time.Since(start)
	if err != nil {
		// Every pipeline call carries the signed auth header, a disavowal
		// from any of them clears the local identity markers so the next
		// pass re-establishes identity instead of failing repeatedly.
		if coinninja.IsDeverification(err) {
			deverifyLocalIdentity(context.Background(), s.repoManager)
		}
		res.Err = err
		stats.SyncsFailed.WithLabelValues(errorClass(err)).Inc()
		logger.WithError(err).Warn("sync: pass failed")
		return res
	}

	stats.SyncsCompleted.Inc()
	logger.WithFields(log.Fields{
		"txs_persisted":       passStats.TxsPersisted,
		"txs_deleted":         passStats.TxsDeleted,
		"invitations_updated": passStats.InvitationsUpdated,
		"txs_groomed":         passStats.TxsGroomed,
		"elapsed":             res.Stats.Duration,
	}).Info("sync: pass completed")
	return res
}

func (s *syncService) pipeline(ctx context.Context, typ SyncType) (SyncStats, error) {
	var passStats SyncStats

	checkin, err := s.apiClient.Checkin()
	if err != nil {
		return passStats, err
	}
	tipHeight := checkin.BlockHeight

	if err := s.refreshUser(ctx); err != nil {
		return passStats, err
	}

	serverInvitations, err := s.apiClient.GetInvitations()
	if err != nil && !errors.Is(err, coinninja.ErrRecordNotFound) {
		return passStats, err
	}

	addresses, err := s.ownedAddresses(ctx)
	if err != nil {
		return passStats, err
	}

	summaries, err := s.fetchSummaries(addresses)
	if err != nil {
		return passStats, err
	}

	canonical, responses, err := s.fetchDetails(summaries)
	if err != nil {
		return passStats, err
	}

	if _, err := s.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			persisted, deleted, err := s.persistTransactions(
				ctx, responses, tipHeight, typ == SyncFull,
			)
			if err != nil {
				return nil, err
			}
			passStats.TxsPersisted = persisted
			passStats.TxsDeleted = deleted

			if err := s.updateLedger(ctx, summaries); err != nil {
				return nil, err
			}

			updated, err := s.processInvitations(ctx, serverInvitations)
			if err != nil {
				return nil, err
			}
			passStats.InvitationsUpdated = updated

			return nil, s.recordCheckin(ctx, checkin, typ)
		},
	); err != nil {
		return passStats, err
	}

	groomed, err := s.groomFailedBroadcasts(ctx, canonical)
	if err != nil {
		return passStats, err
	}
	passStats.TxsGroomed = groomed

	return passStats, nil
}

// refreshUser reconciles the local verification markers with the server.
func (s *syncService) refreshUser(ctx context.Context) error {
	serverUser, err := s.apiClient.GetUser()
	if err != nil {
		if errors.Is(err, coinninja.ErrRecordNotFound) {
			// Nothing to reconcile, the user never verified.
			return nil
		}
		return err
	}

	_, err = s.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return nil, s.repoManager.UserRepository().UpdateUser(
				ctx, func(u *domain.User) (*domain.User, error) {
					if serverUser.Status == coinninja.UserStatusVerified &&
						u.Status != domain.UserStatusVerified {
						u.Verify(serverUser.ID, serverUser.WalletID, time.Now())
					}
					return u, nil
				},
			)
		},
	)
	return err
}

// deverifyLocalIdentity clears the local identity markers after the server
// disavowed them. Shared by the sync pipeline and the wallet flows, any
// authenticated call can observe the disavowal first.
func deverifyLocalIdentity(ctx context.Context, repoManager ports.RepoManager) {
	if _, err := repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return nil, repoManager.UserRepository().UpdateUser(
				ctx, func(u *domain.User) (*domain.User, error) {
					u.Deverify(time.Now())
					return u, nil
				},
			)
		},
	); err != nil {
		log.WithError(err).Error("sync: clearing local identity markers")
		return
	}
	log.Warn("sync: server disavowed local identifiers, user was deverified")
}

func (s *syncService) ownedAddresses(ctx context.Context) ([]domain.Address, error) {
	iAddresses, err := s.repoManager.RunTransaction(
		ctx, readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return s.repoManager.WalletRepository().GetAllAddresses(ctx)
		},
	)
	if err != nil {
		return nil, err
	}
	return iAddresses.([]domain.Address), nil
}

func (s *syncService) recordCheckin(
	ctx context.Context, checkin *coinninja.CheckinResponse, typ SyncType,
) error {
	now := time.Now()
	return s.repoManager.WalletRepository().UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			w.BlockHeight = checkin.BlockHeight
			w.Fees = domain.FeeSchedule{
				Fast: checkin.Fees.Fast,
				Med:  checkin.Fees.Med,
				Slow: checkin.Fees.Slow,
			}
			w.Price = domain.FiatPrice{
				Last:     checkin.Pricing.Last,
				Currency: checkin.Pricing.Currency,
			}
			w.LastSyncTime = now
			if typ == SyncFull {
				w.LastFullSyncTime = now
			}
			return w, nil
		},
	)
}
