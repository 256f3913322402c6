package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var listinvitations = cli.Command{
	Name:   "listinvitations",
	Usage:  "list all known invitations",
	Action: listInvitationsAction,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "active",
			Usage: "only list invitations in a non-terminal status",
		},
	},
}

func listInvitationsAction(ctx *cli.Context) error {
	repoManager, cleanup, err := getRepoManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	invitationRepo := repoManager.InvitationRepository()
	background := context.Background()

	if ctx.Bool("active") {
		invitations, err := invitationRepo.GetActiveInvitations(background)
		if err != nil {
			return err
		}
		printJSON(invitations)
		return nil
	}

	invitations, err := invitationRepo.GetAllInvitations(background)
	if err != nil {
		return err
	}
	printJSON(invitations)
	return nil
}
