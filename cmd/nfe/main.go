// Command nfe parses NF-e access keys and resolves the tax regime of their issuers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/nexconsult/nfe-regime/internal/logger"
	"github.com/nexconsult/nfe-regime/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nfe",
		Short: "NF-e access key parser and tax regime lookup",
		Long: `Parses 44-digit NF-e access keys and classifies the issuing CNPJ as
SIMEI, Simples Nacional or Regime Normal through the company registry API.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newParseCmd())
	root.AddCommand(newRegimeCmd())
	root.AddCommand(newLookupCmd())

	return root
}

// newContainer loads configuration and wires the services used by the lookup commands
func newContainer() (*services.Container, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	// Logs go to stderr so results can be piped
	log := logger.NewWithOutput(level, "text", os.Stderr)

	container, err := services.NewContainer(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return container, log, nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
