package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

var status = cli.Command{
	Name:   "status",
	Usage:  "returns the wallet bookkeeping and user verification state",
	Action: statusAction,
}

func statusAction(ctx *cli.Context) error {
	repoManager, cleanup, err := getRepoManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var wallet *domain.Wallet
	var user *domain.User
	if _, err := repoManager.RunTransaction(
		context.Background(), true,
		func(ctx context.Context) (interface{}, error) {
			var err error
			if wallet, err = repoManager.WalletRepository().GetWallet(ctx); err != nil {
				return nil, err
			}
			user, err = repoManager.UserRepository().GetUser(ctx)
			return nil, err
		},
	); err != nil {
		return err
	}

	printJSON(map[string]interface{}{
		"wallet": wallet,
		"user":   user,
	})
	return nil
}
