package nfe

// KeyLength is the size of an NF-e access key.
const KeyLength = 44

// ParsedKey holds the fields of an NF-e access key, in key order
type ParsedKey struct {
	UF                string `json:"uf" example:"51"`
	AnoMes            string `json:"ano_mes" example:"2505"`
	CNPJ              string `json:"cnpj" example:"01624149000538"`
	Modelo            string `json:"modelo" example:"55"`
	Serie             string `json:"serie" example:"001"`
	Numero            string `json:"numero" example:"000109842"`
	TipoEmissao       string `json:"tipo_emissao" example:"1"`
	CodigoNumerico    string `json:"codigo_numerico" example:"00329526"`
	DigitoVerificador string `json:"digito_verificador" example:"3"`
}

// IsValidKey reports whether key has exactly 44 ASCII digits
func IsValidKey(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

// Parse slices a 44-digit access key into its fields.
// The key must satisfy IsValidKey; no validation is done here.
func Parse(key string) ParsedKey {
	return ParsedKey{
		UF:                key[0:2],
		AnoMes:            key[2:6],
		CNPJ:              key[6:20],
		Modelo:            key[20:22],
		Serie:             key[22:25],
		Numero:            key[25:34],
		TipoEmissao:       key[34:35],
		CodigoNumerico:    key[35:43],
		DigitoVerificador: key[43:44],
	}
}

// String joins the fields back into the access key
func (p ParsedKey) String() string {
	return p.UF + p.AnoMes + p.CNPJ + p.Modelo + p.Serie + p.Numero +
		p.TipoEmissao + p.CodigoNumerico + p.DigitoVerificador
}

// Model returns the document model name for the key
func (p ParsedKey) Model() string {
	switch p.Modelo {
	case "55":
		return "NF-e"
	case "65":
		return "NFC-e"
	default:
		return "DESCONHECIDO"
	}
}
