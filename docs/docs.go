// Package docs registers the OpenAPI description of the partyline API with swag.
// Regenerate with `swag init` after changing handler annotations.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/health": {
            "get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/auth/signup": {
            "post": {"tags": ["Authentication"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}, "409": {"description": "Email already registered"}}}
        },
        "/api/v1/auth/login": {
            "post": {"tags": ["Authentication"], "summary": "Sign in with email and password", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}, "403": {"description": "Account inactive"}}}
        },
        "/api/v1/auth/refresh": {
            "post": {"tags": ["Authentication"], "summary": "Rotate a refresh token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid refresh token"}}}
        },
        "/api/v1/auth/logout": {
            "post": {"tags": ["Authentication"], "summary": "Revoke the current access token", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/profile": {
            "get": {"tags": ["Profile"], "summary": "Read the sending account profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Profile"], "summary": "Update the sending account profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}}
        },
        "/api/v1/recipients": {
            "get": {"tags": ["Recipients"], "summary": "List recipients", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "search", "in": "query"}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Recipients"], "summary": "Create a recipient", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Phone already registered"}}}
        },
        "/api/v1/recipients/{id}": {
            "put": {"tags": ["Recipients"], "summary": "Update a recipient", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["Recipients"], "summary": "Delete a recipient", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/v1/events": {
            "get": {"tags": ["Events"], "summary": "List events", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Events"], "summary": "Create an event with its guest list", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/events/{uuid}": {
            "get": {"tags": ["Events"], "summary": "Read an event", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "uuid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Events"], "summary": "Update an event", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "uuid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Events"], "summary": "Delete an event", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "uuid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/events/{uuid}/dispatch": {
            "post": {"tags": ["Dispatch"], "summary": "Send the event invitation to its guests", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "uuid", "in": "path", "required": true}], "responses": {"200": {"description": "Per-recipient dispatch results"}}}
        },
        "/api/v1/events/{uuid}/messages": {
            "get": {"tags": ["Dispatch"], "summary": "Delivery log for an event", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "uuid", "in": "path", "required": true}, {"type": "string", "name": "status", "in": "query"}, {"type": "string", "name": "channel", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/messages/send": {
            "post": {"tags": ["Dispatch"], "summary": "Send one message through the provider", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Accepted by provider"}, "502": {"description": "Transport failure"}}}
        },
        "/api/v1/messages/log": {
            "post": {"tags": ["Dispatch"], "summary": "Record a sent message", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "403": {"description": "Sender mismatch"}}}
        },
        "/api/v1/messages/generate": {
            "post": {"tags": ["Dispatch"], "summary": "Generate an invitation message", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "502": {"description": "Generation failed"}}}
        },
        "/api/v1/messages/export": {
            "get": {"tags": ["Dispatch"], "summary": "Export the delivery log as XLSX", "security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "parameters": [{"type": "string", "name": "event_uuid", "in": "query"}], "responses": {"200": {"description": "Spreadsheet"}}}
        },
        "/api/v1/webhooks/messaging/status": {
            "post": {"tags": ["Webhooks"], "summary": "Provider delivery status callback", "consumes": ["application/x-www-form-urlencoded"], "responses": {"200": {"description": "OK"}, "400": {"description": "Missing fields"}}}
        },
        "/api/v1/webhooks/messaging/inbound": {
            "post": {"tags": ["Webhooks"], "summary": "Provider inbound message", "consumes": ["application/x-www-form-urlencoded"], "produces": ["text/xml", "application/json"], "responses": {"200": {"description": "Forwarded or reply markup"}, "404": {"description": "No prior message to this phone"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Partyline API",
	Description:      "Event invitations over SMS and WhatsApp with delivery tracking and reply routing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
