package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coinninja/dropbitd/internal/core/application"
	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/coinninja"
)

func TestSyncInvitationLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})

	// the server knows an invitation the local store never saw
	env.api.invitations = []coinninja.InvitationResponse{{
		ID:              "inv1",
		Status:          coinninja.InvitationStatusNew,
		Side:            "sent",
		ValueSats:       10000,
		FeeSats:         300,
		PhoneNumberHash: "abcd",
		CreatedAt:       time.Now().Unix(),
	}}

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)

	invitation := env.getInvitation(t, "inv1")
	require.NotNil(t, invitation)
	require.Equal(t, domain.InvitationStatusRequestSent, invitation.Status)
	require.Equal(t, uint64(10000), invitation.ValueSats)
	require.Equal(t, "abcd", invitation.Counterparty.PhoneNumberHash)
	require.False(t, invitation.ExpiryTime.IsZero())

	// the counterparty supplies an address
	env.api.invitations = []coinninja.InvitationResponse{{
		ID:      "inv1",
		Status:  coinninja.InvitationStatusNew,
		Address: "bc1qtheirs",
	}}

	res = env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Stats.InvitationsUpdated)

	invitation = env.getInvitation(t, "inv1")
	require.Equal(t, domain.InvitationStatusAddressSent, invitation.Status)
	require.Equal(t, "bc1qtheirs", invitation.Address)

	// the server reports the completion with its broadcast txid
	env.api.invitations = []coinninja.InvitationResponse{{
		ID:     "inv1",
		Status: coinninja.InvitationStatusCompleted,
		Txid:   "aa11",
	}}

	res = env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)

	invitation = env.getInvitation(t, "inv1")
	require.Equal(t, domain.InvitationStatusCompleted, invitation.Status)
	require.Equal(t, "aa11", invitation.Txid)
	require.False(t, invitation.CompletedTime.IsZero())

	tx := env.getTransaction(t, "aa11")
	require.NotNil(t, tx)
	require.Equal(t, "inv1", tx.InvitationID)
	require.False(t, tx.IsSentToSelf)
	require.False(t, tx.IsIncoming)
}

func TestSyncInvitationCompletionIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	env.api.invitations = []coinninja.InvitationResponse{{
		ID:        "inv1",
		Status:    coinninja.InvitationStatusCompleted,
		Side:      "received",
		Address:   "bc1qmine",
		Txid:      "aa11",
		ValueSats: 10000,
	}}

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)

	invitation := env.getInvitation(t, "inv1")
	require.Equal(t, domain.InvitationStatusCompleted, invitation.Status)
	completedAt := invitation.CompletedTime

	tx := env.getTransaction(t, "aa11")
	require.NotNil(t, tx)
	require.Equal(t, "inv1", tx.InvitationID)
	require.True(t, tx.IsIncoming)

	// replaying the same server state changes nothing
	res = env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Zero(t, res.Stats.InvitationsUpdated)

	invitation = env.getInvitation(t, "inv1")
	require.Equal(t, completedAt, invitation.CompletedTime)
	require.Equal(t, "aa11", invitation.Txid)

	all, err := env.repoManager.TransactionRepository().
		GetAllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSyncInvitationAttachesExistingTransaction(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})

	tx, err := domain.NewTemporaryTransaction("aa11", domain.TemporaryDetails{})
	require.NoError(t, err)
	tx.IsSentToSelf = true
	require.NoError(
		t, env.repoManager.TransactionRepository().
			AddTransaction(context.Background(), tx),
	)

	env.api.invitations = []coinninja.InvitationResponse{{
		ID:        "inv1",
		Status:    coinninja.InvitationStatusCompleted,
		Side:      "sent",
		Address:   "bc1qtheirs",
		Txid:      "aa11",
		ValueSats: 10000,
	}}

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)

	got := env.getTransaction(t, "aa11")
	require.Equal(t, "inv1", got.InvitationID)
	// the invitation implies an external counterparty
	require.False(t, got.IsSentToSelf)
}

func TestSyncInvitationCancellation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	ctx := context.Background()

	cancelable := domain.NewInvitation("inv1", domain.InvitationSideSent,
		domain.Counterparty{PhoneNumberHash: "abcd"})
	_, err := cancelable.MarkRequestSent(10000, 300, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, cancelable),
	)

	// funds may already be in flight once an address was supplied
	inFlight := domain.NewInvitation("inv2", domain.InvitationSideSent,
		domain.Counterparty{PhoneNumberHash: "efgh"})
	_, err = inFlight.MarkRequestSent(10000, 300, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = inFlight.MarkAddressSent("bc1qtheirs")
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, inFlight),
	)

	env.api.invitations = []coinninja.InvitationResponse{
		{ID: "inv1", Status: coinninja.InvitationStatusCanceled},
		{ID: "inv2", Status: coinninja.InvitationStatusCanceled},
	}

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)

	require.Equal(
		t, domain.InvitationStatusCanceled, env.getInvitation(t, "inv1").Status,
	)
	require.Equal(
		t, domain.InvitationStatusAddressSent, env.getInvitation(t, "inv2").Status,
	)
}

func TestSyncInvitationExpiry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testEnvOpts{})
	ctx := context.Background()

	stale := domain.NewInvitation("inv1", domain.InvitationSideSent,
		domain.Counterparty{TwitterHandle: "@someone"})
	_, err := stale.MarkRequestSent(10000, 300, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, stale),
	)

	fresh := domain.NewInvitation("inv2", domain.InvitationSideSent,
		domain.Counterparty{TwitterHandle: "@other"})
	_, err = fresh.MarkRequestSent(10000, 300, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(
		t, env.repoManager.InvitationRepository().AddInvitation(ctx, fresh),
	)

	res := env.runSync(t, application.SyncStandard)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Stats.InvitationsUpdated)

	require.Equal(
		t, domain.InvitationStatusExpired, env.getInvitation(t, "inv1").Status,
	)
	require.Equal(
		t, domain.InvitationStatusRequestSent, env.getInvitation(t, "inv2").Status,
	)
}
