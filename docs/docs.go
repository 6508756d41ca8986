// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "CronSecret": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/healthz": {"get": {"tags": ["System"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Database unreachable"}}}},
        "/api/client-subscriptions/{id}/renew": {"post": {"tags": ["Renewal"], "summary": "Renew a seat", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RenewSeatBody"}}],
            "responses": {"201": {"description": "Created"}, "404": {"description": "Not found"}, "409": {"description": "Conflict"}, "422": {"description": "Invalid input"}}}},
        "/api/client-subscriptions/bulk-renew": {"post": {"tags": ["Renewal"], "summary": "Renew seats in bulk", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BulkRenewBody"}}],
            "responses": {"201": {"description": "Created"}, "422": {"description": "Invalid input"}}}},
        "/api/subscriptions/{id}/renew": {"post": {"tags": ["Renewal"], "summary": "Renew a platform subscription", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RenewSubscriptionBody"}}],
            "responses": {"201": {"description": "Created"}, "404": {"description": "Not found"}, "409": {"description": "Conflict"}, "422": {"description": "Invalid input"}}}},
        "/api/cron/renew-subscriptions": {"get": {"tags": ["Cron"], "summary": "Run the autopay sweep", "security": [{"CronSecret": []}], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/analytics/break-even": {"get": {"tags": ["Analytics"], "summary": "Break-even per subscription", "security": [{"BearerAuth": []}], "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/analytics/clients": {"get": {"tags": ["Analytics"], "summary": "Client ranking", "security": [{"BearerAuth": []}], "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/analytics/receivables": {"get": {"tags": ["Analytics"], "summary": "Receivables", "security": [{"BearerAuth": []}], "produces": ["application/json"],
            "parameters": [{"type": "integer", "name": "days", "in": "query"}], "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid input"}}}},
        "/api/analytics/cashflow": {"get": {"tags": ["Analytics"], "summary": "Monthly cashflow", "security": [{"BearerAuth": []}], "produces": ["application/json"],
            "parameters": [{"type": "integer", "name": "months", "in": "query"}], "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid input"}}}},
        "/api/ledger/renewal-logs/list": {"post": {"tags": ["Ledger"], "summary": "List renewal logs", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledger.ScanRequest"}}], "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid input"}}}},
        "/api/ledger/platform-renewals/list": {"post": {"tags": ["Ledger"], "summary": "List platform renewals", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledger.ScanRequest"}}], "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid input"}}}}
    },
    "definitions": {
        "handlers.RenewSeatBody": {"type": "object", "required": ["amountPaid"], "properties": {"amountPaid": {"type": "string", "example": "12.50"}, "months": {"type": "integer", "example": 1}, "notes": {"type": "string"}}},
        "handlers.BulkRenewItemBody": {"type": "object", "required": ["seatId", "amountPaid"], "properties": {"seatId": {"type": "string"}, "amountPaid": {"type": "string", "example": "12.50"}, "months": {"type": "integer"}, "notes": {"type": "string"}}},
        "handlers.BulkRenewBody": {"type": "object", "required": ["items"], "properties": {"months": {"type": "integer", "example": 1}, "items": {"type": "array", "items": {"$ref": "#/definitions/handlers.BulkRenewItemBody"}}}},
        "handlers.RenewSubscriptionBody": {"type": "object", "required": ["amountPaid"], "properties": {"amountPaid": {"type": "string", "example": "19.99"}, "notes": {"type": "string"}}},
        "types.CommonFilter": {"type": "object", "properties": {"field": {"type": "string"}, "operator": {"type": "string", "enum": ["eq", "not_eq", "lt", "lte", "gt", "gte", "date_range", "range", "in"]}, "values": {"type": "array", "items": {}}}},
        "ledger.ScanRequest": {"type": "object", "properties": {"filters": {"type": "array", "items": {"$ref": "#/definitions/types.CommonFilter"}}, "from": {"type": "integer"}, "size": {"type": "integer"}, "sortBy": {"type": "string"}, "sortOrder": {"type": "string", "enum": ["asc", "desc"]}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8888",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Seat Ledger API",
	Description:      "Renewal and billing ledger for shared subscription seats.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
