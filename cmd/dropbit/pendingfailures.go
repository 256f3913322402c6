package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/coinninja/dropbitd/internal/core/application"
	"github.com/coinninja/dropbitd/internal/core/domain"
)

var pendingfailures = cli.Command{
	Name:   "pendingfailures",
	Usage:  "list broadcast transactions past their failure grooming threshold",
	Action: pendingFailuresAction,
}

func pendingFailuresAction(ctx *cli.Context) error {
	repoManager, cleanup, err := getRepoManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	txs, err := repoManager.TransactionRepository().
		GetUnconfirmedTransactions(context.Background())
	if err != nil {
		return err
	}

	now := time.Now()
	candidates := make([]*domain.Transaction, 0)
	for _, tx := range txs {
		if tx.BroadcastTime.IsZero() {
			continue
		}
		threshold := application.PlainFailureThreshold
		if tx.InvitationID != "" {
			threshold = application.InvitationFailureThreshold
		}
		if now.Sub(tx.BroadcastTime) >= threshold {
			candidates = append(candidates, tx)
		}
	}

	printJSON(candidates)
	return nil
}
