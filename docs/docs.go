// Package docs registers the OpenAPI document served under /swagger.
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
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Start a ledger session", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/auth/register": {
            "post": {"tags": ["auth"], "summary": "Register and start a ledger session", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "End the current session", "responses": {"204": {"description": "No Content"}}}
        },
        "/wallets": {
            "get": {"tags": ["wallets"], "security": [{"BearerAuth": []}], "summary": "List wallets", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["wallets"], "security": [{"BearerAuth": []}], "summary": "Create a wallet", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/wallets/import": {
            "post": {"tags": ["wallets"], "security": [{"BearerAuth": []}], "summary": "Import a wallet by address", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/wallets/import-key": {
            "post": {"tags": ["wallets"], "security": [{"BearerAuth": []}], "summary": "Import a wallet by private key", "responses": {"201": {"description": "Created"}, "502": {"description": "Bad Gateway"}}}
        },
        "/wallets/sync": {
            "post": {"tags": ["wallets"], "security": [{"BearerAuth": []}], "summary": "Merge wallets held by the wallet backend", "responses": {"200": {"description": "OK"}}}
        },
        "/wallets/refresh": {
            "post": {"tags": ["wallets"], "security": [{"BearerAuth": []}], "summary": "Reprice wallets", "responses": {"200": {"description": "OK"}}}
        },
        "/bank-details": {
            "get": {"tags": ["funding"], "security": [{"BearerAuth": []}], "summary": "Deposit bank details", "responses": {"200": {"description": "OK"}}}
        },
        "/deposits": {
            "post": {"tags": ["funding"], "security": [{"BearerAuth": []}], "summary": "Record a pending bank deposit", "responses": {"202": {"description": "Accepted"}}}
        },
        "/withdrawals": {
            "post": {"tags": ["funding"], "security": [{"BearerAuth": []}], "summary": "Withdraw to a bank account", "responses": {"202": {"description": "Accepted"}, "422": {"description": "Insufficient balance"}}}
        },
        "/transfers": {
            "post": {"tags": ["funding"], "security": [{"BearerAuth": []}], "summary": "Transfer between wallets", "responses": {"200": {"description": "OK"}, "422": {"description": "Insufficient balance"}}}
        },
        "/swaps": {
            "post": {"tags": ["funding"], "security": [{"BearerAuth": []}], "summary": "Swap between assets", "responses": {"200": {"description": "OK"}, "422": {"description": "Insufficient balance"}}}
        },
        "/buys": {
            "post": {"tags": ["funding"], "security": [{"BearerAuth": []}], "summary": "Buy an asset with USD", "responses": {"200": {"description": "OK"}}}
        },
        "/transactions": {
            "get": {"tags": ["transactions"], "security": [{"BearerAuth": []}], "summary": "List transactions, newest first", "responses": {"200": {"description": "OK"}}}
        },
        "/transactions/{id}/settle": {
            "post": {"tags": ["transactions"], "security": [{"BearerAuth": []}], "summary": "Set the status of a pending transaction", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Crypto Wallet Service API",
	Description:      "Mock multi-asset crypto wallet ledger",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
