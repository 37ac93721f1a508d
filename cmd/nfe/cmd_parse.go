package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/nexconsult/nfe-regime/internal/nfe"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <key>",
		Short: "Split an access key into its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if !nfe.IsValidKey(key) {
				return fmt.Errorf("invalid access key %q: must contain exactly %d digits", key, nfe.KeyLength)
			}

			parsed := nfe.Parse(key)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fields := [][2]string{
				{"UF", parsed.UF},
				{"Ano/Mês Emissão", parsed.AnoMes},
				{"CNPJ Emitente", parsed.CNPJ},
				{"Modelo Doc.", parsed.Modelo + " (" + parsed.Model() + ")"},
				{"Série", parsed.Serie},
				{"Número NF-e", parsed.Numero},
				{"Tipo Emissão", parsed.TipoEmissao},
				{"Código Numérico", parsed.CodigoNumerico},
				{"Dígito Verificador", parsed.DigitoVerificador},
			}
			for _, f := range fields {
				fmt.Fprintf(w, "%s\t%s\n", f[0], f[1])
			}
			return w.Flush()
		},
	}
}
