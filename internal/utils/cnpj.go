package utils

import (
	"regexp"
)

var nonDigit = regexp.MustCompile(`\D`)

// CleanCNPJ removes all non-numeric characters from CNPJ
func CleanCNPJ(cnpj string) string {
	return nonDigit.ReplaceAllString(cnpj, "")
}

// IsWellFormedCNPJ reports whether cnpj is exactly 14 ASCII digits.
// Check digits are not verified; the registry decides whether the number exists.
func IsWellFormedCNPJ(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}
	for i := 0; i < len(cnpj); i++ {
		if cnpj[i] < '0' || cnpj[i] > '9' {
			return false
		}
	}
	return true
}

// FormatCNPJ formats CNPJ with dots, slash and dash (XX.XXX.XXX/XXXX-XX)
func FormatCNPJ(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != 14 {
		return cnpj // Return original if invalid length
	}

	return cleaned[:2] + "." + cleaned[2:5] + "." + cleaned[5:8] + "/" + cleaned[8:12] + "-" + cleaned[12:14]
}

// GetCNPJType returns the type of CNPJ (MATRIZ or FILIAL)
func GetCNPJType(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != 14 {
		return "INVALID"
	}

	// The branch number is positions 8-11 (0-indexed)
	if cleaned[8:12] == "0001" {
		return "MATRIZ"
	}
	return "FILIAL"
}
