package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
)

var purgeConfirmed bool

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Service request maintenance",
}

var purgeActiveCmd = &cobra.Command{
	Use:   "purge-active",
	Short: "Delete every pending and accepted service request",
	Long: `Delete every pending and accepted service request.

Completed and cancelled requests and their history are kept. The lifecycle
never calls this; it exists for resetting a vessel between charters.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !purgeConfirmed {
			return errors.New("refusing to purge without --yes")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		repo := repository.NewRepository(e.db)
		svc := service.NewRequestService(e.cfg.Dispatch, repo, nil, nil, nil, e.logger)
		n, err := svc.PurgeActive(ctx, service.Actor{UserID: "opsctl", Role: model.RoleAdmin})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d active requests\n", n)
		return nil
	},
}

func init() {
	purgeActiveCmd.Flags().BoolVar(&purgeConfirmed, "yes", false, "confirm the purge")
	requestsCmd.AddCommand(purgeActiveCmd)
}
