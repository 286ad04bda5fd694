// Package docs registers the dashboard API description with swag.
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
        "/overview": {
            "get": {
                "description": "Latest record per ticker with a valid P/E, for the reality vs hype scatter plot",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Market overview",
                "parameters": [
                    {"type": "boolean", "description": "Include simulation data", "name": "include_synthetic", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OverviewResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/analysis": {
            "post": {
                "description": "Requests a fresh analysis from the engine and falls back to cached history when it fails",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Analyze a ticker",
                "parameters": [
                    {"description": "Ticker to analyze", "name": "analysis", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AnalysisRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/tickers/{ticker}/history": {
            "get": {
                "description": "Hype and gap over time for one ticker, with the trend signal",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Ticker history",
                "parameters": [
                    {"type": "string", "description": "Ticker symbol", "name": "ticker", "in": "path", "required": true},
                    {"type": "boolean", "description": "Include simulation data", "name": "include_synthetic", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/session": {
            "get": {
                "description": "Last analyzed ticker and result of the caller's session",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}
                }
            }
        },
        "/export.csv": {
            "get": {
                "description": "CSV file with one row per analysis run in this session",
                "produces": ["text/csv"],
                "tags": ["dashboard"],
                "summary": "Export session results",
                "responses": {
                    "200": {"description": "CSV file", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "dto.Notice": {
            "type": "object",
            "properties": {
                "level": {"type": "string", "enum": ["info", "warning", "error"]},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.Methodology": {
            "type": "object",
            "properties": {
                "formula": {"type": "string"},
                "high_gap_threshold": {"type": "number"},
                "low_gap_threshold": {"type": "number"},
                "hype_reference_level": {"type": "number"},
                "trend_factor": {"type": "number"}
            }
        },
        "dto.ScatterPoint": {
            "type": "object",
            "properties": {
                "ticker": {"type": "string"},
                "pe_ratio": {"type": "number"},
                "hype_score": {"type": "number"},
                "gap_score": {"type": "number"},
                "observed_at": {"type": "string"},
                "is_synthetic": {"type": "boolean"}
            }
        },
        "dto.OverviewResponse": {
            "type": "object",
            "properties": {
                "include_synthetic": {"type": "boolean"},
                "active_assets": {"type": "integer"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/dto.ScatterPoint"}},
                "methodology": {"$ref": "#/definitions/dto.Methodology"},
                "notices": {"type": "array", "items": {"$ref": "#/definitions/dto.Notice"}}
            }
        },
        "dto.AnalysisRequest": {
            "type": "object",
            "required": ["ticker"],
            "properties": {
                "ticker": {"type": "string", "maxLength": 12},
                "include_synthetic": {"type": "boolean"}
            }
        },
        "dto.TrendPoint": {
            "type": "object",
            "properties": {
                "observed_at": {"type": "string"},
                "hype_score": {"type": "number"},
                "gap_score": {"type": "number"}
            }
        },
        "pulse.TrendSignal": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["INSUFFICIENT_DATA", "ELEVATED", "STABLE"]},
                "latest": {"type": "number"},
                "mean": {"type": "number"},
                "threshold": {"type": "number"},
                "points": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "dto.HistoryResponse": {
            "type": "object",
            "properties": {
                "ticker": {"type": "string"},
                "include_synthetic": {"type": "boolean"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/dto.TrendPoint"}},
                "chartable": {"type": "boolean"},
                "trend": {"$ref": "#/definitions/pulse.TrendSignal"},
                "notices": {"type": "array", "items": {"$ref": "#/definitions/dto.Notice"}}
            }
        },
        "pulse.Recommendation": {
            "type": "object",
            "properties": {
                "category": {"type": "string", "enum": ["SPECULATIVE", "HIGH_RISK", "VALUE_OPPORTUNITY", "NEUTRAL"]},
                "title": {"type": "string"},
                "advice": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "pulse.View": {
            "type": "object",
            "properties": {
                "record": {"type": "object"},
                "source": {"type": "string", "enum": ["live", "cache"]},
                "pe": {"type": "number"},
                "pe_valid": {"type": "boolean"},
                "pe_text": {"type": "string"},
                "gap": {"type": "number"},
                "gap_text": {"type": "string"},
                "headline": {"type": "string"},
                "recommendation": {"$ref": "#/definitions/pulse.Recommendation"}
            }
        },
        "dto.AnalysisResponse": {
            "type": "object",
            "properties": {
                "ticker": {"type": "string"},
                "view": {"$ref": "#/definitions/pulse.View"},
                "history": {"$ref": "#/definitions/dto.HistoryResponse"},
                "notices": {"type": "array", "items": {"$ref": "#/definitions/dto.Notice"}},
                "completed_at": {"type": "string"}
            }
        },
        "dto.SessionResponse": {
            "type": "object",
            "properties": {
                "last_ticker": {"type": "string"},
                "last_view": {"$ref": "#/definitions/pulse.View"},
                "include_synthetic": {"type": "boolean"},
                "exports": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Corporate Pulse API",
	Description:      "Reality (P/E) versus hype (sentiment) dashboard backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
