package main

import (
	"errors"
	"fmt"

	"github.com/nexconsult/nfe-regime/internal/services"
	"github.com/spf13/cobra"
)

func newRegimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regime <cnpj>",
		Short: "Resolve the tax regime of one CNPJ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := newContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			resp, err := container.RegimeService.Lookup(cmd.Context(), args[0])
			if errors.Is(err, services.ErrInvalidCNPJ) {
				return fmt.Errorf("invalid CNPJ %q: must contain exactly 14 digits", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resp.CNPJFormatado, resp.Regime)
			return nil
		},
	}
}
