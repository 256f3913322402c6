package application_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinninja/dropbitd/internal/core/application"
	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/internal/core/ports"
	"github.com/coinninja/dropbitd/internal/infrastructure/storage/db/inmemory"
	"github.com/coinninja/dropbitd/pkg/coinninja"
)

var testCoin = domain.CoinScheme{
	Purpose:  domain.SegwitPurpose,
	CoinType: domain.MainnetCoinType,
	Account:  domain.DefaultAccount,
}

type seedAvailable struct{}

func (seedAvailable) HasSeedMaterial() bool { return true }

type seedMissing struct{}

func (seedMissing) HasSeedMaterial() bool { return false }

// mockAPIClient is a concurrency-safe in-memory stand-in for the wallet API.
type mockAPIClient struct {
	mutex sync.Mutex

	blockHeight uint32
	fees        coinninja.FeeEstimates
	pricing     coinninja.Pricing
	checkinErr  error
	user        *coinninja.UserResponse
	userErr     error
	invitations []coinninja.InvitationResponse
	summaries   []coinninja.AddressTransactionSummary
	txs         map[string]coinninja.TransactionResponse
	ackAddress  string
	uploadErr   error

	acked    []coinninja.AcknowledgementData
	canceled []string
	uploaded []coinninja.WalletAddressData

	// checkinGate, when set, blocks Checkin until closed. checkinHook, when
	// set, runs at the top of every Checkin call.
	checkinGate  chan struct{}
	checkinHook  func()
	checkinCalls int32
	inFlight     int32
	overlapped   int32
}

func newMockAPIClient() *mockAPIClient {
	return &mockAPIClient{
		blockHeight: 700000,
		fees: coinninja.FeeEstimates{
			Fast: decimal.NewFromInt(30),
			Med:  decimal.NewFromInt(20),
			Slow: decimal.NewFromInt(10),
		},
		pricing: coinninja.Pricing{
			Last:     decimal.RequireFromString("65000.5"),
			Currency: "USD",
		},
		txs: map[string]coinninja.TransactionResponse{},
	}
}

func (m *mockAPIClient) Checkin() (*coinninja.CheckinResponse, error) {
	if atomic.AddInt32(&m.inFlight, 1) > 1 {
		atomic.StoreInt32(&m.overlapped, 1)
	}
	defer atomic.AddInt32(&m.inFlight, -1)
	atomic.AddInt32(&m.checkinCalls, 1)

	m.mutex.Lock()
	gate := m.checkinGate
	hook := m.checkinHook
	height := m.blockHeight
	fees := m.fees
	pricing := m.pricing
	checkinErr := m.checkinErr
	m.mutex.Unlock()

	if hook != nil {
		hook()
	}
	if gate != nil {
		<-gate
	}
	time.Sleep(5 * time.Millisecond)
	if checkinErr != nil {
		return nil, checkinErr
	}
	return &coinninja.CheckinResponse{
		BlockHeight: height,
		Fees:        fees,
		Pricing:     pricing,
	}, nil
}

func (m *mockAPIClient) GetAddressTransactionSummaries(
	addresses []string,
) ([]coinninja.AddressTransactionSummary, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	queried := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		queried[addr] = struct{}{}
	}

	out := make([]coinninja.AddressTransactionSummary, 0)
	for _, summary := range m.summaries {
		if _, ok := queried[summary.Address]; ok {
			out = append(out, summary)
		}
	}
	return out, nil
}

func (m *mockAPIClient) GetTransaction(
	txid string,
) (*coinninja.TransactionResponse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	res, ok := m.txs[txid]
	if !ok {
		return nil, coinninja.ErrRecordNotFound
	}
	return &res, nil
}

func (m *mockAPIClient) GetInvitations() ([]coinninja.InvitationResponse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]coinninja.InvitationResponse{}, m.invitations...), nil
}

func (m *mockAPIClient) CreateAddressRequest(
	data coinninja.AddressRequestData,
) (*coinninja.InvitationResponse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return &coinninja.InvitationResponse{
		ID:              "srv-" + data.RequestID,
		Status:          coinninja.InvitationStatusNew,
		ValueSats:       data.ValueSats,
		FeeSats:         data.FeeSats,
		PhoneNumberHash: data.PhoneNumberHash,
	}, nil
}

func (m *mockAPIClient) AcknowledgeInvitation(
	data coinninja.AcknowledgementData,
) (*coinninja.InvitationResponse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.acked = append(m.acked, data)
	return &coinninja.InvitationResponse{
		ID:      data.InvitationID,
		Status:  coinninja.InvitationStatusCompleted,
		Txid:    data.Txid,
		Address: m.ackAddress,
	}, nil
}

func (m *mockAPIClient) CancelInvitation(
	id string,
) (*coinninja.InvitationResponse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.canceled = append(m.canceled, id)
	return &coinninja.InvitationResponse{
		ID:     id,
		Status: coinninja.InvitationStatusCanceled,
	}, nil
}

func (m *mockAPIClient) AddWalletAddresses(
	data []coinninja.WalletAddressData,
) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.uploaded = append(m.uploaded, data...)
	return nil
}

func (m *mockAPIClient) GetUser() (*coinninja.UserResponse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.userErr != nil {
		return nil, m.userErr
	}
	if m.user == nil {
		return nil, coinninja.ErrRecordNotFound
	}
	return m.user, nil
}

// mockExplorer answers existence checks from a fixed map, unknown txids do
// not exist.
type mockExplorer struct {
	mutex sync.Mutex
	hasTx map[string]bool
	err   error
}

func newMockExplorer() *mockExplorer {
	return &mockExplorer{hasTx: map[string]bool{}}
}

func (m *mockExplorer) HasTransaction(txid string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.err != nil {
		return false, m.err
	}
	return m.hasTx[txid], nil
}

func (m *mockExplorer) IsTransactionConfirmed(txid string) (bool, error) {
	return false, nil
}

func (m *mockExplorer) GetBlockHeight() (int, error) {
	return 700000, nil
}

type testEnv struct {
	repoManager ports.RepoManager
	api         *mockAPIClient
	explorer    *mockExplorer
	syncSvc     application.SyncService
}

type testEnvOpts struct {
	seedMissing     bool
	seedSource      application.SeedSource
	skipWalletInit  bool
	stalenessWindow time.Duration
}

func newTestEnv(t *testing.T, opts testEnvOpts) *testEnv {
	t.Helper()

	repoManager := inmemory.NewRepoManager()
	ctx := context.Background()

	if !opts.skipWalletInit {
		_, err := repoManager.WalletRepository().GetOrCreateWallet(ctx, testCoin)
		require.NoError(t, err)
		_, err = repoManager.UserRepository().GetOrCreateUser(ctx)
		require.NoError(t, err)
	}

	api := newMockAPIClient()
	explorerSvc := newMockExplorer()

	var seedSource application.SeedSource = seedAvailable{}
	if opts.seedMissing {
		seedSource = seedMissing{}
	}
	if opts.seedSource != nil {
		seedSource = opts.seedSource
	}

	syncSvc := application.NewSyncService(application.SyncServiceOpts{
		RepoManager:     repoManager,
		APIClient:       api,
		ExplorerSvc:     explorerSvc,
		SeedSource:      seedSource,
		Coin:            testCoin,
		StalenessWindow: opts.stalenessWindow,
	})
	syncSvc.Start()
	t.Cleanup(syncSvc.Stop)

	return &testEnv{
		repoManager: repoManager,
		api:         api,
		explorer:    explorerSvc,
		syncSvc:     syncSvc,
	}
}

// seedAddress persists a derived address, optionally flagged used on-chain.
func (e *testEnv) seedAddress(
	t *testing.T, addr string, chain, index uint32, used bool,
) {
	t.Helper()

	ctx := context.Background()
	address := domain.NewAddress(addr, domain.DerivationPath{
		Purpose:  testCoin.Purpose,
		CoinType: testCoin.CoinType,
		Account:  testCoin.Account,
		Chain:    chain,
		Index:    index,
	})
	require.NoError(
		t, e.repoManager.WalletRepository().AddAddresses(
			ctx, []domain.Address{address},
		),
	)
	if used {
		require.NoError(
			t, e.repoManager.WalletRepository().MarkAddressesUsed(
				ctx, []string{addr},
			),
		)
	}
}

func (e *testEnv) runSync(
	t *testing.T, typ application.SyncType,
) application.SyncResult {
	t.Helper()

	select {
	case res := <-e.syncSvc.EnqueueSync(typ, application.PolicyAlways):
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("sync did not complete in time")
		return application.SyncResult{}
	}
}

func (e *testEnv) getTransaction(t *testing.T, txid string) *domain.Transaction {
	t.Helper()

	tx, err := e.repoManager.TransactionRepository().
		GetTransaction(context.Background(), txid)
	require.NoError(t, err)
	return tx
}

func (e *testEnv) getInvitation(t *testing.T, id string) *domain.Invitation {
	t.Helper()

	invitation, err := e.repoManager.InvitationRepository().
		GetInvitation(context.Background(), id)
	require.NoError(t, err)
	return invitation
}

func (e *testEnv) getWallet(t *testing.T) *domain.Wallet {
	t.Helper()

	wallet, err := e.repoManager.WalletRepository().GetWallet(context.Background())
	require.NoError(t, err)
	return wallet
}

func verifiedUser(id, walletID string) *coinninja.UserResponse {
	return &coinninja.UserResponse{
		ID:       id,
		WalletID: walletID,
		Status:   coinninja.UserStatusVerified,
	}
}
