package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RegimeKind identifies a tax regime classification outcome
type RegimeKind string

const (
	RegimeSIMEI           RegimeKind = "simei"
	RegimeSimples         RegimeKind = "simples"
	RegimeNormal          RegimeKind = "normal"
	RegimeNotFound        RegimeKind = "not_found"
	RegimeInvalidCNPJ     RegimeKind = "invalid_cnpj"
	RegimeAPIError        RegimeKind = "api_error"
	RegimeTimeout         RegimeKind = "timeout"
	RegimeConnectionError RegimeKind = "connection_error"
	RegimeUnexpectedError RegimeKind = "unexpected_error"
	RegimeThrottled       RegimeKind = "throttled"
	RegimeInvalidKey      RegimeKind = "invalid_key"
)

// Labels shown in the result table
const (
	LabelSIMEI           = "SIMEI"
	LabelSimples         = "Simples Nacional"
	LabelNormal          = "Regime Normal / Outros"
	LabelNotFound        = "CNPJ Não Encontrado na API"
	LabelInvalidCNPJ     = "CNPJ Inválido"
	LabelTimeout         = "Erro: Tempo limite excedido"
	LabelConnectionError = "Erro: Falha de conexão com a API"
	LabelThrottled       = "Erro: Limite de requisições da API excedido"
	LabelInvalidKey      = "Chave Inválida"

	apiErrorPrefix   = "Erro na API: Status "
	unexpectedPrefix = "Erro inesperado: "
)

// Regime is the classification of a company's tax regime.
// Status is set for RegimeAPIError, Detail for RegimeUnexpectedError.
type Regime struct {
	Kind   RegimeKind
	Status int
	Detail string
}

func SIMEI() Regime { return Regime{Kind: RegimeSIMEI} }
func SimplesNacional() Regime { return Regime{Kind: RegimeSimples} }
func RegimeNormalOutros() Regime { return Regime{Kind: RegimeNormal} }
func NotFound() Regime { return Regime{Kind: RegimeNotFound} }
func InvalidCNPJ() Regime { return Regime{Kind: RegimeInvalidCNPJ} }
func Timeout() Regime { return Regime{Kind: RegimeTimeout} }
func ConnectionError() Regime { return Regime{Kind: RegimeConnectionError} }
func Throttled() Regime { return Regime{Kind: RegimeThrottled} }
func InvalidKey() Regime { return Regime{Kind: RegimeInvalidKey} }

// APIError is returned for unexpected HTTP status codes
func APIError(status int) Regime {
	return Regime{Kind: RegimeAPIError, Status: status}
}

// UnexpectedError wraps any other failure message
func UnexpectedError(msg string) Regime {
	return Regime{Kind: RegimeUnexpectedError, Detail: msg}
}

// String returns the display label
func (r Regime) String() string {
	switch r.Kind {
	case RegimeSIMEI:
		return LabelSIMEI
	case RegimeSimples:
		return LabelSimples
	case RegimeNormal:
		return LabelNormal
	case RegimeNotFound:
		return LabelNotFound
	case RegimeInvalidCNPJ:
		return LabelInvalidCNPJ
	case RegimeAPIError:
		return apiErrorPrefix + strconv.Itoa(r.Status)
	case RegimeTimeout:
		return LabelTimeout
	case RegimeConnectionError:
		return LabelConnectionError
	case RegimeThrottled:
		return LabelThrottled
	case RegimeInvalidKey:
		return LabelInvalidKey
	default:
		return unexpectedPrefix + r.Detail
	}
}

// Definitive reports whether the result describes the company rather than a failure.
// Only definitive results are cached.
func (r Regime) Definitive() bool {
	switch r.Kind {
	case RegimeSIMEI, RegimeSimples, RegimeNormal, RegimeNotFound:
		return true
	}
	return false
}

// MarshalText encodes the regime as its label
func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText
func (r *Regime) UnmarshalText(text []byte) error {
	parsed, err := ParseRegime(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRegime maps a label back to its Regime
func ParseRegime(label string) (Regime, error) {
	switch label {
	case LabelSIMEI:
		return SIMEI(), nil
	case LabelSimples:
		return SimplesNacional(), nil
	case LabelNormal:
		return RegimeNormalOutros(), nil
	case LabelNotFound:
		return NotFound(), nil
	case LabelInvalidCNPJ:
		return InvalidCNPJ(), nil
	case LabelTimeout:
		return Timeout(), nil
	case LabelConnectionError:
		return ConnectionError(), nil
	case LabelThrottled:
		return Throttled(), nil
	case LabelInvalidKey:
		return InvalidKey(), nil
	}

	if strings.HasPrefix(label, apiErrorPrefix) {
		status, err := strconv.Atoi(strings.TrimPrefix(label, apiErrorPrefix))
		if err != nil {
			return Regime{}, fmt.Errorf("invalid API error label %q: %w", label, err)
		}
		return APIError(status), nil
	}
	if strings.HasPrefix(label, unexpectedPrefix) {
		return UnexpectedError(strings.TrimPrefix(label, unexpectedPrefix)), nil
	}

	return Regime{}, fmt.Errorf("unknown regime label %q", label)
}
