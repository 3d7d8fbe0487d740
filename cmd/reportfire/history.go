package main

import (
	"fmt"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and maintain execution history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete entries older than the configured retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Janitor.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries older than %s\n", n, c.Config.HistoryRetention)
			return nil
		},
	})

	var (
		scheduleID string
		ownerID    string
		status     string
		page       int
		pageSize   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List history of a schedule or an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (scheduleID == "") == (ownerID == "") {
				return fmt.Errorf("exactly one of --schedule or --owner is required")
			}
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if scheduleID != "" {
				res, err := c.Manager.ListHistory(cmd.Context(), scheduleID, page, pageSize)
				if err != nil {
					return err
				}
				renderHistory(cmd.OutOrStdout(), res)
				return nil
			}
			res, err := c.Manager.ListOwnerHistory(cmd.Context(), ownerID, state.ExecutionStatus(status), page, pageSize)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), res)
			return nil
		},
	}
	list.Flags().StringVar(&scheduleID, "schedule", "", "schedule id")
	list.Flags().StringVar(&ownerID, "owner", "", "owner id")
	list.Flags().StringVar(&status, "status", "", "filter owner history by status (success, failed, partial)")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&pageSize, "page-size", 20, "entries per page")
	cmd.AddCommand(list)

	return cmd
}
