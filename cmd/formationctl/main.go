package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/formationvault-backend/internal/app"
	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "formationctl",
		Short:         "Regenerate formation documents and manage company vaults",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(bundleCmd())
	rootCmd.AddCommand(vaultCmd())
	rootCmd.AddCommand(auditCmd())
	return rootCmd
}

// openApp wires the services against the configured database and stores.
func openApp() (*app.App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "production"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.NewForCLI(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
