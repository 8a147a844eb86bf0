// Package docs registers the OpenAPI 2.0 spec for the DoH transport's
// HTTP surface with swaggo/swag, so gin-swagger can serve it at
// /swagger/*any. Hand-maintained rather than `swag init`-generated,
// but in the shape that tool produces.
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
        "/dns-query": {
            "get": {
                "description": "Resolves a DNS query carried as a base64url-encoded wire-format message (RFC 8484 GET form).",
                "produces": ["application/dns-message"],
                "summary": "DNS-over-HTTPS query",
                "parameters": [
                    {
                        "type": "string",
                        "description": "base64url (no padding) RFC 1035 wire-format query",
                        "name": "dns",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": { "description": "wire-format DNS response" },
                    "400": { "description": "missing or malformed dns parameter" }
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness check",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "summary": "Process uptime, CPU, and memory snapshot",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported swag.Spec metadata, matching the shape
// `swag init` generates.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "dnsforward DoH transport",
	Description:      "RFC 8484 DNS-over-HTTPS query endpoint plus health/stats.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
