package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the document access trail",
	}
	cmd.AddCommand(auditTailCmd())
	return cmd
}

func auditTailCmd() *cobra.Command {
	var (
		requester string
		limit     int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent document reads by a requester",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.Services.Auditor.Recent(cmd.Context(), requester, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, rows)
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format(time.RFC3339), r.Outcome, r.DocumentRef, r.ResolvedKey)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&requester, "requester", "r", "", "Requester user id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("requester")
	return cmd
}
