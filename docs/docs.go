// Package docs registers the OpenAPI document served under /swagger/.
// It is maintained by hand alongside the controllers' godoc annotations; keep the
// paths and definitions below in step with them.
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
        "/api/events": {
            "get": {
                "description": "Returns events newest first. With profileIds, only events referencing any of the given profiles are returned.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List events",
                "parameters": [
                    {"type": "string", "description": "Comma-separated profile ids; the parameter may also be repeated", "name": "profileIds", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains the events", "schema": {"$ref": "#/definitions/controllers.ListEventsSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "description": "Create an event for one or more existing profiles. End must be strictly after start.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Create an event",
                "parameters": [
                    {"description": "Event data", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/events/calendar.ics": {
            "get": {
                "description": "Returns the filtered event list as a text/calendar document.",
                "produces": ["text/calendar"],
                "tags": ["events"],
                "summary": "Export events as iCalendar",
                "parameters": [
                    {"type": "string", "description": "Comma-separated profile ids; the parameter may also be repeated", "name": "profileIds", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "iCalendar document", "schema": {"type": "string"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/events/{eventID}": {
            "get": {
                "description": "Returns the event with its profile names resolved.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Get an event by ID",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "put": {
                "description": "Partially update an event. Only supplied fields are considered; fields whose value actually changes are recorded in the event's change log.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Update an event",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"description": "Fields to update", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "patch": {
                "description": "Partially update an event. Same semantics as PUT.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Update an event",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"description": "Fields to update", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/events/{eventID}/calendar.ics": {
            "get": {
                "produces": ["text/calendar"],
                "tags": ["events"],
                "summary": "Export one event as iCalendar",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "iCalendar document", "schema": {"type": "string"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/events/{eventID}/logs": {
            "get": {
                "description": "Returns the change log entries for the event, newest first.",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List an event's change log",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the change log entries", "schema": {"$ref": "#/definitions/controllers.ListEventLogsSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/profiles": {
            "get": {
                "description": "Returns every profile, newest first.",
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "List profiles",
                "responses": {
                    "200": {"description": "data contains the profiles", "schema": {"$ref": "#/definitions/controllers.ListProfilesSuccessResponse"}}
                }
            },
            "post": {
                "description": "Create a uniquely named profile. The name is trimmed before the uniqueness check.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profiles"],
                "summary": "Create a profile",
                "parameters": [
                    {"description": "Profile name", "name": "profile", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateProfileRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created profile", "schema": {"$ref": "#/definitions/controllers.ProfileSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness and database reachability",
                "responses": {
                    "200": {"description": "data.status: ok", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.CreateEventRequest": {
            "type": "object",
            "properties": {
                "endDateTime": {"type": "string"},
                "profiles": {"type": "array", "items": {"type": "string"}},
                "startDateTime": {"type": "string"},
                "timezone": {"type": "string"}
            }
        },
        "controllers.CreateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "controllers.EventSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.EventView"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListEventLogsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.ChangeLogEntry"}},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListEventsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.EventView"}},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListProfilesSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Profile"}},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ProfileSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.Profile"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.UpdateEventRequest": {
            "type": "object",
            "properties": {
                "endDateTime": {"type": "string"},
                "profiles": {"type": "array", "items": {"type": "string"}},
                "startDateTime": {"type": "string"},
                "timezone": {"type": "string"}
            }
        },
        "domain.ChangeLogEntry": {
            "type": "object",
            "properties": {
                "changes": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldChange"}},
                "createdAt": {"type": "string"},
                "eventId": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "domain.EventView": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "endDateTime": {"type": "string"},
                "id": {"type": "string"},
                "profiles": {"type": "array", "items": {"$ref": "#/definitions/domain.ProfileRef"}},
                "startDateTime": {"type": "string"},
                "timezone": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.FieldChange": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "newValue": {"type": "string"},
                "oldValue": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "domain.Profile": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.ProfileRef": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "helpers.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/helpers.APIError"}
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
	Title:            "Event Planner API",
	Description:      "Profiles, events and per-event change history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
