package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCNPJ(t *testing.T) {
	assert.Equal(t, "12345678000195", CleanCNPJ("12.345.678/0001-95"))
	assert.Equal(t, "12345678000195", CleanCNPJ(" 12 345 678 0001 95\n"))
	assert.Equal(t, "", CleanCNPJ("abc./-"))
	assert.Equal(t, "123", CleanCNPJ("x1y2z3"))
}

func TestIsWellFormedCNPJ(t *testing.T) {
	assert.True(t, IsWellFormedCNPJ("12345678000195"))
	assert.True(t, IsWellFormedCNPJ("00000000000000"))
	assert.False(t, IsWellFormedCNPJ(""))
	assert.False(t, IsWellFormedCNPJ("1234567800019"))
	assert.False(t, IsWellFormedCNPJ("123456780001950"))
	assert.False(t, IsWellFormedCNPJ("12.345.678/0001-95"))
}

func TestFormatCNPJ(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-95", FormatCNPJ("12345678000195"))
	assert.Equal(t, "123", FormatCNPJ("123"))
}

func TestGetCNPJType(t *testing.T) {
	assert.Equal(t, "MATRIZ", GetCNPJType("12345678000195"))
	assert.Equal(t, "FILIAL", GetCNPJType("12345678000276"))
	assert.Equal(t, "INVALID", GetCNPJType("1234"))
}
