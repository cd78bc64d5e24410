// Package docs registers the Limify OpenAPI document with swag.
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "responses": {"201": {"description": "Tokens and user"}, "409": {"description": "Email already registered"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "responses": {"200": {"description": "Tokens and user"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Rotate tokens",
                "responses": {"200": {"description": "New token pair"}, "401": {"description": "Invalid token"}}
            }
        },
        "/budgets/quote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Compute a budget without storing it",
                "responses": {"200": {"description": "Quote"}, "422": {"description": "Invalid budget"}}
            }
        },
        "/budgets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "List budgets",
                "responses": {"200": {"description": "Page of budgets"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Create budget",
                "responses": {"201": {"description": "Budget"}, "402": {"description": "Quota exceeded"}}
            }
        },
        "/budgets/{id}/publish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["publications"],
                "summary": "Publish budget",
                "responses": {"201": {"description": "Publication and public URL"}}
            }
        },
        "/public/budgets/{id}": {
            "get": {
                "tags": ["publications"],
                "summary": "Public budget page",
                "responses": {"200": {"description": "Latest publication"}, "404": {"description": "Not published"}}
            }
        },
        "/plan": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["plan"],
                "summary": "Current plan",
                "responses": {"200": {"description": "Plan summary"}}
            }
        },
        "/billing/plans": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["billing"],
                "summary": "Apply plan",
                "responses": {"200": {"description": "Stored plan"}, "401": {"description": "Invalid API key"}}
            }
        },
        "/team": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["team"],
                "summary": "Get team",
                "responses": {"200": {"description": "Team with members"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        },
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Limify API",
	Description:      "Limify prices, publishes and tracks service budgets for small studios.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
