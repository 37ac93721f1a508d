package models

import (
	"time"

	"github.com/nexconsult/nfe-regime/internal/nfe"
)

// BatchRequest represents a batch regime lookup request.
// Keys takes precedence over Text when both are set.
type BatchRequest struct {
	Keys []string `json:"keys,omitempty" example:"[\"51250501624149000538550010001098421003295263\"]"`
	Text string   `json:"text,omitempty" example:"51250501624149000538550010001098421003295263\n3525..."`
}

// ExportRequest carries the rows of a previous batch for download
type ExportRequest struct {
	Rows []ResultRow `json:"rows" binding:"required"`
}

// ParseResponse represents a parsed access key
type ParseResponse struct {
	ChaveAcesso string        `json:"chave_acesso" example:"51250501624149000538550010001098421003295263"`
	Campos      nfe.ParsedKey `json:"campos"`
	Documento   string        `json:"documento" example:"NF-e"`
}

// RegimeResponse represents a single CNPJ regime lookup
type RegimeResponse struct {
	CNPJ          string     `json:"cnpj" example:"12345678000195"`
	CNPJFormatado string     `json:"cnpj_formatado" example:"12.345.678/0001-95"`
	TipoEmpresa   string     `json:"tipo_empresa" example:"MATRIZ"`
	Regime        string     `json:"regime_tributario" example:"Simples Nacional"`
	Kind          RegimeKind `json:"kind" example:"simples"`
	ConsultadoEm  time.Time  `json:"consultado_em" example:"2025-05-10T10:30:00Z"`
	TempoConsulta int64      `json:"tempo_consulta_ms" example:"350"`
}

// ProgressEvent is streamed while a batch runs
type ProgressEvent struct {
	Index       int   `json:"index" example:"3"`
	Total       int   `json:"total" example:"10"`
	ElapsedMs   int64 `json:"elapsed_ms" example:"12000"`
	RemainingMs int64 `json:"remaining_ms" example:"28000"`
}

// BatchTooLargeResponse is returned when a batch exceeds the maximum size
type BatchTooLargeResponse struct {
	ErrorResponse
	Count int `json:"count" example:"401"`
	Max   int `json:"max" example:"400"`
}

// BatchResponse is the outcome of a batch with a tally per regime
type BatchResponse struct {
	BatchResult
	Resumo map[string]int `json:"resumo"`
}

// NewBatchResponse builds the response of a finished batch
func NewBatchResponse(result *BatchResult) BatchResponse {
	return BatchResponse{BatchResult: *result, Resumo: result.RegimeCounts()}
}
