// Package docs holds the OpenAPI document served at /swagger.
//
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
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
                "description": "Create a password account with a free subscription and send a verification email",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.RegisterResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Authenticate with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the authenticated user and their active subscription",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MeResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/verify": {
            "post": {
                "description": "Consume an email verification token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Verify email",
                "parameters": [
                    {"description": "Verification token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.VerifyEmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/resend-verification": {
            "post": {
                "description": "Issue a fresh verification token and email it",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Resend verification email",
                "parameters": [
                    {"description": "Account email", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ResendVerificationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/google": {
            "post": {
                "description": "Sign in with a Google ID token, creating the account on first use",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Google sign-in",
                "parameters": [
                    {"description": "Google ID token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.GoogleAuthRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Acknowledge a logout. Tokens are stateless and expire on their own.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/handlers.LogoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/packages": {
            "get": {
                "description": "List the active subscription packages",
                "produces": ["application/json"],
                "tags": ["packages"],
                "summary": "List packages",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PackageListResponse"}}
                }
            }
        },
        "/packages/{tier}": {
            "get": {
                "description": "Get one subscription package by tier",
                "produces": ["application/json"],
                "tags": ["packages"],
                "summary": "Get package",
                "parameters": [
                    {"type": "string", "enum": ["free", "pro", "unlimited"], "description": "Package tier", "name": "tier", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Package"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/internal/audit-logs": {
            "get": {
                "security": [{"APIKeyAuth": []}],
                "description": "Paginated audit trail of authentication events",
                "produces": ["application/json"],
                "tags": ["maintenance"],
                "summary": "List audit logs",
                "parameters": [
                    {"type": "string", "description": "Filter by user ID", "name": "user_id", "in": "query"},
                    {"type": "string", "description": "Filter by action", "name": "action", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Items per page (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pagination.PageResponse-models_AuditLog"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/internal/reconcile": {
            "post": {
                "security": [{"APIKeyAuth": []}],
                "description": "Create default subscriptions for users that have none",
                "produces": ["application/json"],
                "tags": ["maintenance"],
                "summary": "Reconcile subscriptions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ReconcileResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/handlers.ErrorDetail"}}
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "status": {"type": "string"},
                "verified": {"type": "boolean"},
                "picture": {"type": "string"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "maxLength": 72, "minLength": 8}
            }
        },
        "handlers.RegisterResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "user": {"$ref": "#/definitions/handlers.UserResponse"}}
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.AuthResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/handlers.UserResponse"},
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "handlers.MeResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/handlers.UserResponse"}, "subscription": {"$ref": "#/definitions/models.Subscription"}}
        },
        "handlers.VerifyEmailRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "handlers.ResendVerificationRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "handlers.GoogleAuthRequest": {
            "type": "object",
            "required": ["idToken"],
            "properties": {"idToken": {"type": "string"}}
        },
        "handlers.LogoutRequest": {
            "type": "object",
            "properties": {"refreshToken": {"type": "string"}}
        },
        "handlers.PackageListResponse": {
            "type": "object",
            "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/models.Package"}}}
        },
        "handlers.ReconcileResponse": {
            "type": "object",
            "properties": {"created": {"type": "integer"}}
        },
        "models.AuditLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "action": {"type": "string"},
                "email": {"type": "string"},
                "ip_address": {"type": "string"},
                "details": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "pagination.PageResponse-models_AuditLog": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.AuditLog"}},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "models.Package": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "package": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "integer"},
                "account": {"type": "integer"},
                "incomes": {"type": "integer"},
                "expenses": {"type": "integer"},
                "price": {"type": "integer"},
                "duration_days": {"type": "integer"},
                "features": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"}
            }
        },
        "models.Subscription": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "tier": {"type": "string"},
                "expired_at": {"type": "string"},
                "is_active": {"type": "boolean"},
                "limit_category": {"type": "integer"},
                "limit_account": {"type": "integer"},
                "limit_incomes": {"type": "integer"},
                "limit_expenses": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "APIKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "KU Money API",
	Description:      "KU Money identity and subscription entitlement service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
