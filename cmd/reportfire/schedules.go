package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchedulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Inspect and toggle schedules",
	}

	var (
		ownerID  string
		page     int
		pageSize int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List an owner's schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Manager.ListByOwner(cmd.Context(), ownerID, page, pageSize)
			if err != nil {
				return err
			}
			renderSchedules(cmd.OutOrStdout(), res)
			return nil
		},
	}
	list.Flags().StringVar(&ownerID, "owner", "", "owner id")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&pageSize, "page-size", 20, "schedules per page")
	_ = list.MarkFlagRequired("owner")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Pause an active schedule or resume a paused one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			def, err := c.Manager.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule %s active=%t next run %s\n", def.ID, def.IsActive, def.NextRun.Format(timeLayout))
			return nil
		},
	})
	return cmd
}
