package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coinninja/dropbitd/internal/core/application"
	"github.com/coinninja/dropbitd/internal/core/domain"
)

func (e *testEnv) seedBroadcast(
	t *testing.T, txid string, age time.Duration,
) {
	t.Helper()

	tx, err := domain.NewTemporaryTransaction(txid, domain.TemporaryDetails{
		CreatedAt: time.Now().Add(-age),
	})
	require.NoError(t, err)
	require.NoError(
		t, e.repoManager.TransactionRepository().
			AddTransaction(context.Background(), tx),
	)
}

func TestSyncGroomsFailedBroadcast(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	env.seedBroadcast(t, "old1", 10*time.Minute)
	env.seedBroadcast(t, "new1", 10*time.Second)

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Stats.TxsGroomed)

	old := env.getTransaction(t, "old1")
	require.True(t, old.Failed)
	require.False(t, old.FailureTime.IsZero())
	// the record survives so callers can tell failed from pending
	require.True(t, old.IsTemporary())

	recent := env.getTransaction(t, "new1")
	require.False(t, recent.Failed)

	// a groomed broadcast is terminal for the next pass too
	res = env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Zero(t, res.Stats.TxsGroomed)
}

func TestSyncGroomingRequiresExplorerConfirmation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	env.seedBroadcast(t, "slow1", 10*time.Minute)

	// the explorer still knows the tx, it is slow, not failed
	env.explorer.hasTx["slow1"] = true

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Zero(t, res.Stats.TxsGroomed)
	require.False(t, env.getTransaction(t, "slow1").Failed)
}

func TestSyncGroomingExplorerOutageDefers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	env.seedBroadcast(t, "old1", 10*time.Minute)

	env.explorer.mutex.Lock()
	env.explorer.err = errors.New("explorer unreachable")
	env.explorer.mutex.Unlock()

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Zero(t, res.Stats.TxsGroomed)
	require.False(t, env.getTransaction(t, "old1").Failed)

	env.explorer.mutex.Lock()
	env.explorer.err = nil
	env.explorer.mutex.Unlock()

	res = env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Stats.TxsGroomed)
	require.True(t, env.getTransaction(t, "old1").Failed)
}

func TestSyncGroomingInvitationThreshold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	ctx := context.Background()

	invitation := domain.NewInvitation("inv1", domain.InvitationSideSent,
		domain.Counterparty{PhoneNumberHash: "abcd"})
	_, err := invitation.MarkRequestSent(10000, 300, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, invitation),
	)

	// aged past the invitation threshold but not the plain one
	age := 4 * time.Minute
	env.seedBroadcast(t, "invtx1", age)
	require.NoError(
		t, env.repoManager.TransactionRepository().UpdateTransaction(
			ctx, "invtx1",
			func(tx *domain.Transaction) (*domain.Transaction, error) {
				tx.InvitationID = "inv1"
				return tx, nil
			},
		),
	)
	env.seedBroadcast(t, "plain1", age)

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Stats.TxsGroomed)

	require.True(t, env.getTransaction(t, "invtx1").Failed)
	require.False(t, env.getTransaction(t, "plain1").Failed)
}

func TestSyncGroomingSkipsCompletedInvitationTx(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	ctx := context.Background()

	invitation := domain.NewInvitation("inv1", domain.InvitationSideSent,
		domain.Counterparty{PhoneNumberHash: "abcd"})
	_, err := invitation.MarkRequestSent(10000, 300, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = invitation.MarkAddressSent("bc1qtheirs")
	require.NoError(t, err)
	_, err = invitation.Complete("invtx1", time.Now())
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, invitation),
	)

	env.seedBroadcast(t, "invtx1", 10*time.Minute)
	require.NoError(
		t, env.repoManager.TransactionRepository().UpdateTransaction(
			ctx, "invtx1",
			func(tx *domain.Transaction) (*domain.Transaction, error) {
				tx.InvitationID = "inv1"
				return tx, nil
			},
		),
	)

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Zero(t, res.Stats.TxsGroomed)
	require.False(t, env.getTransaction(t, "invtx1").Failed)
}
