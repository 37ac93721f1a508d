// Package docs registers the OpenAPI document served by gin-swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/nfe/parse/{key}": {
            "get": {
                "description": "Split a 44-digit access key into its fields",
                "produces": ["application/json"],
                "tags": ["NF-e"],
                "summary": "Parse an NF-e access key",
                "parameters": [
                    {"type": "string", "example": "51250501624149000538550010001098421003295263", "description": "Access key (44 digits)", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ParseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/nfe/batch": {
            "post": {
                "description": "Keys are processed in order, one registry request at a time. With stream=true the response is a Server-Sent Events stream of \"progress\" events followed by one \"result\" event.",
                "consumes": ["application/json"],
                "produces": ["application/json", "text/event-stream"],
                "tags": ["NF-e"],
                "summary": "Resolve the tax regime of every access key",
                "parameters": [
                    {"description": "Keys as a list or as newline-separated text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.BatchRequest"}},
                    {"type": "boolean", "description": "Stream progress as Server-Sent Events", "name": "stream", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BatchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/models.BatchTooLargeResponse"}}
                }
            }
        },
        "/nfe/export/{format}": {
            "post": {
                "description": "Render rows of a previous batch as XLSX or UTF-8 CSV",
                "consumes": ["application/json"],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv"],
                "tags": ["NF-e"],
                "summary": "Export batch results",
                "parameters": [
                    {"enum": ["xlsx", "csv"], "type": "string", "description": "File format", "name": "format", "in": "path", "required": true},
                    {"description": "Rows to export", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cnpj/{cnpj}/regime": {
            "get": {
                "description": "Classify a CNPJ as SIMEI, Simples Nacional or Regime Normal. Lookup failures are reported as a classification, not as an HTTP error.",
                "produces": ["application/json"],
                "tags": ["CNPJ"],
                "summary": "Get the tax regime of a CNPJ",
                "parameters": [
                    {"type": "string", "example": "01624149000538", "description": "CNPJ, punctuation allowed", "name": "cnpj", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RegimeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cache/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Get cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cache/clear": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Clear cached regimes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cache/{cnpj}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Delete the cached regime of a CNPJ",
                "parameters": [
                    {"type": "string", "description": "CNPJ", "name": "cnpj", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid access key"},
                "message": {"type": "string", "example": "Access key must contain exactly 44 digits"},
                "code": {"type": "string", "example": "INVALID_KEY"},
                "timestamp": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "path": {"type": "string", "example": "/api/v1/nfe/parse/123"}
            }
        },
        "models.BatchTooLargeResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Batch too large"},
                "message": {"type": "string"},
                "code": {"type": "string", "example": "BATCH_TOO_LARGE"},
                "timestamp": {"type": "string"},
                "path": {"type": "string"},
                "count": {"type": "integer", "example": 401},
                "max": {"type": "integer", "example": 400}
            }
        },
        "nfe.ParsedKey": {
            "type": "object",
            "properties": {
                "uf": {"type": "string", "example": "51"},
                "ano_mes": {"type": "string", "example": "2505"},
                "cnpj": {"type": "string", "example": "01624149000538"},
                "modelo": {"type": "string", "example": "55"},
                "serie": {"type": "string", "example": "001"},
                "numero": {"type": "string", "example": "000109842"},
                "tipo_emissao": {"type": "string", "example": "1"},
                "codigo_numerico": {"type": "string", "example": "00329526"},
                "digito_verificador": {"type": "string", "example": "3"}
            }
        },
        "models.ParseResponse": {
            "type": "object",
            "properties": {
                "chave_acesso": {"type": "string", "example": "51250501624149000538550010001098421003295263"},
                "campos": {"$ref": "#/definitions/nfe.ParsedKey"},
                "documento": {"type": "string", "example": "NF-e"}
            }
        },
        "models.BatchRequest": {
            "type": "object",
            "properties": {
                "keys": {"type": "array", "items": {"type": "string"}},
                "text": {"type": "string"}
            }
        },
        "models.ResultRow": {
            "type": "object",
            "properties": {
                "chave_acesso": {"type": "string"},
                "uf": {"type": "string"},
                "ano_mes": {"type": "string"},
                "cnpj_emitente": {"type": "string"},
                "modelo": {"type": "string"},
                "serie": {"type": "string"},
                "numero": {"type": "string"},
                "tipo_emissao": {"type": "string"},
                "codigo_numerico": {"type": "string"},
                "digito_verificador": {"type": "string"},
                "regime_tributario": {"type": "string", "example": "Simples Nacional"}
            }
        },
        "models.BatchResponse": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/models.ResultRow"}},
                "total": {"type": "integer", "example": 2},
                "valid": {"type": "integer", "example": 1},
                "invalid": {"type": "integer", "example": 1},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "duration_ms": {"type": "integer", "example": 4012},
                "resumo": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "models.ExportRequest": {
            "type": "object",
            "required": ["rows"],
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/models.ResultRow"}}
            }
        },
        "models.RegimeResponse": {
            "type": "object",
            "properties": {
                "cnpj": {"type": "string", "example": "12345678000195"},
                "cnpj_formatado": {"type": "string", "example": "12.345.678/0001-95"},
                "tipo_empresa": {"type": "string", "example": "MATRIZ"},
                "regime_tributario": {"type": "string", "example": "Simples Nacional"},
                "kind": {"type": "string", "example": "simples"},
                "consultado_em": {"type": "string", "example": "2025-05-10T10:30:00Z"},
                "tempo_consulta_ms": {"type": "integer", "example": 350}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "NF-e Regime API",
	Description:      "Parses NF-e access keys and resolves the tax regime of the issuing CNPJ",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
