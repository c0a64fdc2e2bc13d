// Package docs registers the OpenAPI document served by the swagger UI.
// Regenerate with `swag init` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service info",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/tags": {
            "get": {
                "produces": ["application/json"],
                "summary": "List known models (Ollama compatible)",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Generate a completion (Ollama compatible)",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/api/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Chat completion (Ollama compatible)",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/api/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Lifecycle manager status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/models/load/{name}": {
            "post": {
                "produces": ["application/json"],
                "summary": "Force-load a model",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Internal Server Error"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/api/models/unload/{name}": {
            "delete": {
                "produces": ["application/json"],
                "summary": "Unload a model",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "inferd API",
	Description:      "Ollama-compatible HTTP gateway over pluggable inference backends.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
