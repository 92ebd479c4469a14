// Package docs registers the CalendarEase API description with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks",
                "description": "Returns every task, or the tasks of one calendar day when date is given",
                "produces": ["application/json"],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Calendar day (YYYY-MM-DD)",
                        "name": "date",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "description": "Task",
                        "name": "task",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateTaskRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/Task"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        },
        "/tasks/reminders": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks with reminders",
                "description": "Reminder-enabled tasks ordered by date",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}
                    }
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["Tasks"],
                "summary": "Get a task",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["Tasks"],
                "summary": "Update a task",
                "description": "Replaces only the fields present in the body",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to replace",
                        "name": "task",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete a task",
                "description": "Deletes the task and every voice note attached to it",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/voice-notes": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List a task's voice notes",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/VoiceNote"}}
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/voice-notes": {
            "get": {
                "tags": ["VoiceNotes"],
                "summary": "List voice notes",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/VoiceNote"}}
                    }
                }
            },
            "post": {
                "tags": ["VoiceNotes"],
                "summary": "Save a voice note",
                "description": "A missing title defaults to one built from the date; a missing date to now",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "description": "Voice note",
                        "name": "note",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateVoiceNoteRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/VoiceNote"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/voice-notes/{id}": {
            "delete": {
                "tags": ["VoiceNotes"],
                "summary": "Delete a voice note",
                "parameters": [
                    {"type": "string", "description": "Voice note ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "completed": {"type": "boolean"},
                "reminderEnabled": {"type": "boolean"},
                "reminderTime": {"type": "string", "format": "date-time"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "VoiceNote": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "recordingUrl": {"type": "string"},
                "transcription": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "duration": {"type": "integer"},
                "taskId": {"type": "string"}
            }
        },
        "CreateTaskRequest": {
            "type": "object",
            "required": ["title", "date"],
            "properties": {
                "title": {"type": "string", "example": "Buy milk"},
                "description": {"type": "string"},
                "date": {"type": "string", "example": "2024-05-01"},
                "completed": {"type": "boolean"},
                "reminderEnabled": {"type": "boolean"},
                "reminderTime": {"type": "string", "example": "2024-05-01T09:00:00Z"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string"},
                "completed": {"type": "boolean"},
                "reminderEnabled": {"type": "boolean"},
                "reminderTime": {"type": "string", "x-nullable": true},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateVoiceNoteRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "recordingUrl": {"type": "string"},
                "transcription": {"type": "string"},
                "date": {"type": "string"},
                "duration": {"type": "integer", "minimum": 0, "example": 42},
                "taskId": {"type": "string"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "CalendarEase API",
	Description:      "Calendar tasks and voice notes",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
