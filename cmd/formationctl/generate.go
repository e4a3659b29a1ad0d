package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/formationvault-backend/internal/services"
)

func generateCmd() *cobra.Command {
	var (
		userID  string
		noCRM   bool
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "generate <record-id> <document-kind>",
		Short: "Generate (or regenerate) one document for a formation record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Generation.Generate(cmd.Context(), services.GenerationRequest{
				RecordID:             args[0],
				DocumentKind:         args[1],
				UserID:               userID,
				UpdateExternalRecord: !noCRM,
				Timeout:              timeout,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d bytes\n", res.DocumentID, res.Format, res.StorageKey, res.SizeBytes)
			if !res.Reconcile.LedgerSynced {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: ledger entry was not updated")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Ledger owner (defaults to the record's user)")
	cmd.Flags().BoolVar(&noCRM, "no-crm", false, "Skip writing the view URL back to the CRM record")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Pipeline timeout (default from GENERATION_PIPELINE_TIMEOUT_SECONDS)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func bundleCmd() *cobra.Command {
	var (
		userID string
		kinds  []string
		noCRM  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "bundle <record-id>",
		Short: "Generate every document that applies to the record's entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Generation.GenerateBundle(cmd.Context(), services.BundleRequest{
				RecordID:             args[0],
				UserID:               userID,
				UpdateExternalRecord: !noCRM,
				DocumentKinds:        kinds,
			})
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(cmd, res); err != nil {
					return err
				}
			} else {
				for _, it := range res.Items {
					if it.Err != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tFAILED\t%s\n", it.DocumentID, it.Error)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", it.DocumentID, it.Result.Format, it.Result.StorageKey)
				}
			}
			if n := res.Failed(); n > 0 {
				return fmt.Errorf("%d of %d documents failed", n, len(res.Items))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Ledger owner (defaults to the record's user)")
	cmd.Flags().StringSliceVarP(&kinds, "kinds", "k", nil, "Restrict to these document kinds")
	cmd.Flags().BoolVar(&noCRM, "no-crm", false, "Skip writing view URLs back to the CRM record")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}
