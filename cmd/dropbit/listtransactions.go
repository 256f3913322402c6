package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var listtransactions = cli.Command{
	Name:   "listtransactions",
	Usage:  "list all reconciled transactions",
	Action: listTransactionsAction,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "unconfirmed",
			Usage: "only list unconfirmed transactions",
		},
	},
}

func listTransactionsAction(ctx *cli.Context) error {
	repoManager, cleanup, err := getRepoManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	txRepo := repoManager.TransactionRepository()
	background := context.Background()

	if ctx.Bool("unconfirmed") {
		txs, err := txRepo.GetUnconfirmedTransactions(background)
		if err != nil {
			return err
		}
		printJSON(txs)
		return nil
	}

	txs, err := txRepo.GetAllTransactions(background)
	if err != nil {
		return err
	}
	printJSON(txs)
	return nil
}
