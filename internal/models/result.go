package models

import (
	"time"

	"github.com/nexconsult/nfe-regime/internal/nfe"
)

// Columns is the fixed column order of the result table
var Columns = []string{
	"Chave de Acesso",
	"UF",
	"Ano/Mês Emissão",
	"CNPJ Emitente",
	"Modelo Doc.",
	"Série",
	"Número NF-e",
	"Tipo Emissão",
	"Código Numérico",
	"Dígito Verificador",
	"Regime Tributário",
}

// ResultRow is one line of the result table
type ResultRow struct {
	ChaveAcesso       string `json:"chave_acesso" example:"51250501624149000538550010001098421003295263"`
	UF                string `json:"uf" example:"51"`
	AnoMes            string `json:"ano_mes" example:"2505"`
	CNPJ              string `json:"cnpj_emitente" example:"01624149000538"`
	Modelo            string `json:"modelo" example:"55"`
	Serie             string `json:"serie" example:"001"`
	Numero            string `json:"numero" example:"000109842"`
	TipoEmissao       string `json:"tipo_emissao" example:"1"`
	CodigoNumerico    string `json:"codigo_numerico" example:"00329526"`
	DigitoVerificador string `json:"digito_verificador" example:"3"`
	Regime            Regime `json:"regime_tributario" swaggertype:"string" example:"Simples Nacional"`
}

// NewResultRow assembles the row of a structurally valid key
func NewResultRow(key string, parsed nfe.ParsedKey, regime Regime) ResultRow {
	return ResultRow{
		ChaveAcesso:       key,
		UF:                parsed.UF,
		AnoMes:            parsed.AnoMes,
		CNPJ:              parsed.CNPJ,
		Modelo:            parsed.Modelo,
		Serie:             parsed.Serie,
		Numero:            parsed.Numero,
		TipoEmissao:       parsed.TipoEmissao,
		CodigoNumerico:    parsed.CodigoNumerico,
		DigitoVerificador: parsed.DigitoVerificador,
		Regime:            regime,
	}
}

// NewInvalidRow keeps the raw key and fills every other column with the invalid sentinel
func NewInvalidRow(key string) ResultRow {
	return ResultRow{
		ChaveAcesso:       key,
		UF:                LabelInvalidKey,
		AnoMes:            LabelInvalidKey,
		CNPJ:              LabelInvalidKey,
		Modelo:            LabelInvalidKey,
		Serie:             LabelInvalidKey,
		Numero:            LabelInvalidKey,
		TipoEmissao:       LabelInvalidKey,
		CodigoNumerico:    LabelInvalidKey,
		DigitoVerificador: LabelInvalidKey,
		Regime:            InvalidKey(),
	}
}

// Valid reports whether the row came from a well-formed key
func (r ResultRow) Valid() bool {
	return r.Regime.Kind != RegimeInvalidKey
}

// Values returns the cells in Columns order
func (r ResultRow) Values() []string {
	return []string{
		r.ChaveAcesso,
		r.UF,
		r.AnoMes,
		r.CNPJ,
		r.Modelo,
		r.Serie,
		r.Numero,
		r.TipoEmissao,
		r.CodigoNumerico,
		r.DigitoVerificador,
		r.Regime.String(),
	}
}

// BatchResult is the outcome of one batch run
type BatchResult struct {
	Rows       []ResultRow `json:"rows"`
	Total      int         `json:"total" example:"2"`
	Valid      int         `json:"valid" example:"1"`
	Invalid    int         `json:"invalid" example:"1"`
	StartedAt  time.Time   `json:"started_at" example:"2025-05-10T10:30:00Z"`
	FinishedAt time.Time   `json:"finished_at" example:"2025-05-10T10:30:04Z"`
	DurationMs int64       `json:"duration_ms" example:"4012"`
}

// Append adds a row and updates the counters
func (b *BatchResult) Append(row ResultRow) {
	b.Rows = append(b.Rows, row)
	b.Total++
	if row.Valid() {
		b.Valid++
	} else {
		b.Invalid++
	}
}

// RegimeCounts tallies rows by regime label
func (b *BatchResult) RegimeCounts() map[string]int {
	counts := make(map[string]int)
	for _, row := range b.Rows {
		counts[row.Regime.String()]++
	}
	return counts
}
