// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/main.go -o docs
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/api/update": {
            "post": {
                "description": "One form field per appliance (washer, dryer). Invalid input answers 200 with a per-field error map and changes nothing.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/plain"],
                "tags": ["device"],
                "summary": "Submit power readings",
                "parameters": [
                    {"type": "string", "example": "10.0", "description": "Washer current in amps", "name": "washer", "in": "formData", "required": true},
                    {"type": "string", "example": "2.0", "description": "Dryer current in amps", "name": "dryer", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "key=json snapshot lines", "schema": {"type": "string"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/button": {
            "post": {
                "description": "Claims the current load, collects it on a second press by its owner, or claims a fresh one.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/plain"],
                "tags": ["device"],
                "summary": "Press the ownership button",
                "parameters": [
                    {"type": "string", "example": "Sam", "description": "Person pressing the button", "name": "name", "in": "formData"},
                    {"type": "string", "description": "Alias of name", "name": "person", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "key=json snapshot lines", "schema": {"type": "string"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/status": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["device"],
                "summary": "Current status as text",
                "responses": {
                    "200": {"description": "key=json snapshot lines", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/snapshot": {
            "get": {
                "produces": ["application/json"],
                "tags": ["laundry"],
                "summary": "Current snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/readings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["laundry"],
                "summary": "Submit power readings (JSON)",
                "parameters": [
                    {"description": "Amps per appliance name", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ReadingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/button": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["laundry"],
                "summary": "Press the ownership button (JSON)",
                "parameters": [
                    {"description": "Who pressed", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ButtonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/loads": {
            "get": {
                "description": "Loads newest first. limit defaults to 50 and is capped at 500.",
                "produces": ["application/json"],
                "tags": ["loads"],
                "summary": "List loads",
                "parameters": [
                    {"type": "string", "example": "washer", "description": "Appliance name", "name": "appliance", "in": "query"},
                    {"type": "integer", "example": 20, "description": "Maximum number of loads", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, loads", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "description": "Filter events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), type and appliance. A date-only 'to' is inclusive to the end of that day.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List load events",
                "parameters": [
                    {"type": "string", "example": "2024-03-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2024-03-31", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["LOAD_STARTED", "CYCLE_ADVANCED", "LOAD_FINISHED", "LOAD_COLLECTED", "OWNER_ASSIGNED"], "type": "string", "description": "Event type", "name": "type", "in": "query"},
                    {"type": "string", "example": "washer", "description": "Appliance name", "name": "appliance", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "Upgrades to a WebSocket, sends the snapshot at once and again whenever it changes, checking every interval (?interval=2s or ?interval_ms=2000, max 10s).",
                "tags": ["laundry"],
                "summary": "Snapshot stream",
                "parameters": [
                    {"type": "string", "example": "2s", "description": "Poll interval as a Go duration", "name": "interval", "in": "query"},
                    {"type": "integer", "example": 2000, "description": "Poll interval in milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.ButtonRequest": {
            "type": "object",
            "properties": {
                "name": {"description": "Name of a known household member", "type": "string", "example": "Sam"}
            }
        },
        "handlers.ReadingsRequest": {
            "type": "object",
            "additionalProperties": {"type": "number"}
        },
        "models.ApplianceStatus": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "reading": {"type": "number"},
                "running": {"type": "boolean"},
                "cycle": {"type": "integer"},
                "user": {"type": "string"},
                "collected": {"type": "boolean"}
            }
        },
        "models.Snapshot": {
            "type": "object",
            "properties": {
                "appliances": {"type": "array", "items": {"$ref": "#/definitions/models.ApplianceStatus"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Laundrybot API",
	Description:      "Tracks washer and dryer loads from power readings and a shared ownership button.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
