package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/formationvault-backend/internal/services"
)

func vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Inspect and create company vaults",
	}
	cmd.AddCommand(vaultCreateCmd(), vaultListCmd())
	return cmd
}

func vaultCreateCmd() *cobra.Command {
	var req services.CreateVaultRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the vault for a company (no-op when it already exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			vaultPath, err := a.Services.Vaults.CreateVault(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), vaultPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.UserID, "user", "u", "", "Owning user id")
	cmd.Flags().StringVarP(&req.CompanyID, "company", "c", "", "Company id")
	cmd.Flags().StringVarP(&req.CompanyName, "name", "n", "", "Company display name")
	cmd.Flags().StringVar(&req.RecordID, "record", "", "CRM record to receive the vault path")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func vaultListCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the vault paths owned by a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			paths, err := a.Services.Vaults.VaultPaths(cmd.Context(), userID)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owning user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
