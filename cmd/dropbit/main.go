package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/coinninja/dropbitd/internal/config"
	"github.com/coinninja/dropbitd/internal/core/ports"
	dbbadger "github.com/coinninja/dropbitd/internal/infrastructure/storage/db/badger"
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "dropbit CLI"
	app.Usage = "Command line interface for inspecting dropbitd state"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "daemon data directory",
			Value: config.GetDatadir(),
		},
	}
	app.Commands = append(
		app.Commands,
		&status,
		&listtransactions,
		&listinvitations,
		&pendingfailures,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// getRepoManager opens the daemon's badger store. The store is single-writer
// so the daemon must not be running.
func getRepoManager(ctx *cli.Context) (ports.RepoManager, func(), error) {
	dbDir := filepath.Join(ctx.String("datadir"), config.DbLocation)
	repoManager, err := dbbadger.NewRepoManager(dbDir, nil)
	if err != nil {
		return nil, nil, err
	}
	return repoManager, func() { repoManager.Close() }, nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(data))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[dropbit] %v\n", err)
	os.Exit(1)
}
