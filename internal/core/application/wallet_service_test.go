package application_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/coinninja/dropbitd/internal/core/application"
	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/coinninja"
	"github.com/coinninja/dropbitd/pkg/keyutil"
)

func testDeriver(t *testing.T) *keyutil.Deriver {
	t.Helper()

	seed := bytes.Repeat([]byte{0x07}, 32)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	xpub, err := master.Neuter()
	require.NoError(t, err)

	deriver, err := keyutil.NewDeriver(
		xpub.String(), domain.SegwitPurpose, &chaincfg.MainNetParams,
	)
	require.NoError(t, err)
	return deriver
}

func newWalletService(t *testing.T, env *testEnv) application.WalletService {
	t.Helper()

	return application.NewWalletService(
		env.repoManager, env.api, testDeriver(t), testCoin,
	)
}

func TestNewReceiveAddress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)
	ctx := context.Background()

	first, err := svc.NewReceiveAddress(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.Address)
	require.Equal(t, uint32(domain.ReceiveChain), first.Path.Chain)
	require.Equal(t, uint32(0), first.Path.Index)

	second, err := svc.NewReceiveAddress(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.Address, second.Address)
	require.Equal(t, uint32(1), second.Path.Index)

	// generated but unconfirmed indexes live in the gap set
	wallet := env.getWallet(t)
	require.Equal(t, []uint32{0, 1}, wallet.ReceiveAddressGaps)
	require.Equal(t, domain.UnusedIndex, wallet.LastReceiveIndex)

	stored, err := env.repoManager.WalletRepository().
		GetAddressesForChain(ctx, domain.ReceiveChain)
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestNewChangeAddress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)
	ctx := context.Background()

	first, err := svc.NewChangeAddress(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(domain.ChangeChain), first.Path.Chain)
	require.Equal(t, uint32(0), first.Path.Index)

	second, err := svc.NewChangeAddress(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), second.Path.Index)

	// change indexes never enter the gap set
	require.Empty(t, env.getWallet(t).ReceiveAddressGaps)
}

func TestFailingNewAddressWithoutWallet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{skipWalletInit: true})
	svc := newWalletService(t, env)

	_, err := svc.NewReceiveAddress(context.Background())
	require.ErrorIs(t, err, application.ErrWalletNotInitialized)
}

func TestRegisterBroadcast(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)
	ctx := context.Background()

	err := svc.RegisterBroadcast(ctx, "aa11", domain.TemporaryDetails{
		Fee:              200,
		RecipientAddress: "bc1qtheirs",
	})
	require.NoError(t, err)

	tx := env.getTransaction(t, "aa11")
	require.True(t, tx.IsTemporary())
	require.False(t, tx.BroadcastTime.IsZero())

	err = svc.RegisterBroadcast(ctx, "aa11", domain.TemporaryDetails{})
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyBroadcast)

	err = svc.RegisterBroadcast(ctx, "", domain.TemporaryDetails{})
	require.ErrorIs(t, err, domain.ErrNullTxid)
}

func TestCreateInvitation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)

	invitation, err := svc.CreateInvitation(
		context.Background(),
		domain.Counterparty{PhoneNumberHash: "abcd"},
		10000, 300, 500, "USD",
	)
	require.NoError(t, err)
	require.NotEmpty(t, invitation.ID)
	require.Equal(t, domain.InvitationStatusRequestSent, invitation.Status)
	require.Equal(t, uint64(10000), invitation.ValueSats)
	require.Equal(t, int64(500), invitation.FiatAmount)
	require.False(t, invitation.ExpiryTime.IsZero())

	persisted := env.getInvitation(t, invitation.ID)
	require.NotNil(t, persisted)
	require.Equal(t, domain.InvitationStatusRequestSent, persisted.Status)
}

func TestCancelInvitation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)
	ctx := context.Background()

	err := svc.CancelInvitation(ctx, "unknown")
	require.ErrorIs(t, err, application.ErrUnknownInvitation)

	invitation, err := svc.CreateInvitation(
		ctx, domain.Counterparty{PhoneNumberHash: "abcd"}, 10000, 300, 0, "",
	)
	require.NoError(t, err)

	require.NoError(t, svc.CancelInvitation(ctx, invitation.ID))
	require.Equal(
		t,
		domain.InvitationStatusCanceled,
		env.getInvitation(t, invitation.ID).Status,
	)
	require.Equal(t, []string{invitation.ID}, env.api.canceled)
}

func TestFailingCancelInvitationAddressSent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)
	ctx := context.Background()

	invitation := domain.NewInvitation("inv1", domain.InvitationSideSent,
		domain.Counterparty{PhoneNumberHash: "abcd"})
	_, err := invitation.MarkRequestSent(10000, 300, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = invitation.MarkAddressSent("bc1qtheirs")
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, invitation),
	)

	err = svc.CancelInvitation(ctx, "inv1")
	require.ErrorIs(t, err, domain.ErrInvitationNotCancelable)
	// rejected locally, the server never saw the cancel
	require.Empty(t, env.api.canceled)
}

func TestAcknowledgeInvitation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	env.api.ackAddress = "bc1qtheirs"
	svc := newWalletService(t, env)
	ctx := context.Background()

	invitation, err := svc.CreateInvitation(
		ctx, domain.Counterparty{PhoneNumberHash: "abcd"}, 10000, 300, 0, "",
	)
	require.NoError(t, err)

	require.NoError(t, svc.AcknowledgeInvitation(ctx, invitation.ID, "aa11"))

	completed := env.getInvitation(t, invitation.ID)
	require.Equal(t, domain.InvitationStatusCompleted, completed.Status)
	require.Equal(t, "bc1qtheirs", completed.Address)
	require.Equal(t, "aa11", completed.Txid)

	tx := env.getTransaction(t, "aa11")
	require.NotNil(t, tx)
	require.Equal(t, invitation.ID, tx.InvitationID)

	// acknowledging an already completed invitation is a no-op
	require.NoError(t, svc.AcknowledgeInvitation(ctx, invitation.ID, "aa11"))

	all, err := env.repoManager.TransactionRepository().GetAllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	err = svc.AcknowledgeInvitation(ctx, invitation.ID, "")
	require.ErrorIs(t, err, domain.ErrNullTxid)
}

func TestWalletAPIDeverification(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	env.api.uploadErr = coinninja.ErrDeverifiedDevice
	svc := newWalletService(t, env)
	ctx := context.Background()

	err := svc.ReplenishServerPool(ctx)
	require.ErrorIs(t, err, coinninja.ErrDeverifiedDevice)

	// the disavowal cleared the local identity markers
	user, err := env.repoManager.UserRepository().GetUser(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusDeverified, user.Status)
	require.Empty(t, user.ServerUserID)
}

func TestReplenishServerPool(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	svc := newWalletService(t, env)
	ctx := context.Background()

	require.NoError(t, svc.ReplenishServerPool(ctx))
	require.Len(t, env.api.uploaded, 5)

	seen := make(map[string]struct{})
	for i, data := range env.api.uploaded {
		require.NotEmpty(t, data.Address)
		require.Equal(t, fmt.Sprintf("m/84'/0'/0'/0/%d", i), data.DerivationPath)
		seen[data.Address] = struct{}{}
	}
	require.Len(t, seen, 5)

	// pool addresses advance neither the gap set nor the index counters
	wallet := env.getWallet(t)
	require.Empty(t, wallet.ReceiveAddressGaps)
	require.Equal(t, domain.UnusedIndex, wallet.LastReceiveIndex)

	// but locally handed out addresses never reuse a pool slot
	info, err := svc.NewReceiveAddress(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(5), info.Path.Index)

	require.NoError(t, svc.ReplenishServerPool(ctx))
	require.Len(t, env.api.uploaded, 10)
	require.Equal(t, "m/84'/0'/0'/0/6", env.api.uploaded[5].DerivationPath)
}
