// Package docs registers the OpenAPI description of the records API with
// swag, so gin-swagger can serve it at /swagger/doc.json.
//
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/records": {
            "get": {
                "tags": ["records"],
                "summary": "List records",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query", "enum": ["created_at", "updated_at", "request_date", "requester_name", "status", "reference_code"]},
                    {"type": "string", "name": "order", "in": "query", "enum": ["asc", "desc"]},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "integer", "name": "created_by", "in": "query"},
                    {"type": "integer", "name": "assigned_to", "in": "query"},
                    {"type": "boolean", "name": "urgent", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "boolean", "name": "include_deleted", "in": "query"},
                    {"type": "string", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListRecordsResponse"}},
                    "304": {"description": "Not Modified"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["records"],
                "summary": "Create a record",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/records/overdue": {
            "get": {"tags": ["reports"], "summary": "Records past the deadline", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordsResponse"}}}}
        },
        "/records/urgent": {
            "get": {"tags": ["reports"], "summary": "Urgent open records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordsResponse"}}}}
        },
        "/records/dashboard": {
            "get": {
                "tags": ["reports"],
                "summary": "Dashboard counters",
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DashboardResponse"}}}
            }
        },
        "/records/{id}": {
            "get": {
                "tags": ["records"],
                "summary": "Get a record",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "name": "include_deleted", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["records"],
                "summary": "Update descriptive fields",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["records"],
                "summary": "Soft delete",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/records/{id}/status": {
            "post": {
                "tags": ["lifecycle"],
                "summary": "Change status (override requires ADMIN)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}},
                    "409": {"description": "Illegal transition", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/records/{id}/assign": {
            "post": {
                "tags": ["lifecycle"],
                "summary": "Assign responsible staff",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AssignRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}}}
            }
        },
        "/records/{id}/complete": {
            "post": {
                "tags": ["lifecycle"],
                "summary": "Finalize the record",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}}}
            }
        },
        "/records/{id}/restore": {
            "post": {
                "tags": ["records"],
                "summary": "Restore a soft-deleted record",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecordResponse"}}}
            }
        },
        "/records/{id}/permanent": {
            "delete": {
                "tags": ["records"],
                "summary": "Hard delete (ADMIN)",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/admin/triage": {
            "get": {"tags": ["admin"], "summary": "Rows whose stored state cannot be decoded", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.TriageResponse"}}}}
        }
    },
    "definitions": {
        "handlers.FieldError": {
            "type": "object",
            "properties": {"field": {"type": "string"}, "message": {"type": "string"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/handlers.FieldError"}}
            }
        },
        "handlers.CreateRecordRequest": {
            "type": "object",
            "properties": {
                "record_type": {"type": "string", "enum": ["PHYSICAL", "DIGITAL"]},
                "requester_name": {"type": "string"},
                "reference_code": {"type": "string"},
                "process_number": {"type": "string"},
                "document_type": {"type": "string"},
                "department": {"type": "string"},
                "responsible_staff": {"type": "string"},
                "purpose": {"type": "string"},
                "notes": {"type": "string"},
                "request_date": {"type": "string", "example": "2026-05-30"},
                "release_date": {"type": "string"},
                "return_date": {"type": "string"},
                "extension_requested": {"type": "boolean"},
                "urgent": {"type": "boolean"},
                "assigned_to_id": {"type": "integer"}
            }
        },
        "handlers.UpdateRecordRequest": {
            "type": "object",
            "properties": {
                "record_type": {"type": "string"},
                "requester_name": {"type": "string"},
                "process_number": {"type": "string"},
                "document_type": {"type": "string"},
                "department": {"type": "string"},
                "responsible_staff": {"type": "string"},
                "purpose": {"type": "string"},
                "notes": {"type": "string"},
                "request_date": {"type": "string"},
                "return_date": {"type": "string"},
                "clear_return_date": {"type": "boolean"},
                "extension_requested": {"type": "boolean"},
                "urgent": {"type": "boolean"}
            }
        },
        "handlers.ChangeStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string"}, "override": {"type": "boolean"}}
        },
        "handlers.AssignRequest": {
            "type": "object",
            "required": ["assigned_to_id"],
            "properties": {"assigned_to_id": {"type": "integer"}}
        },
        "handlers.RecordResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "record_type": {"type": "string"},
                "status": {"type": "string"},
                "next_statuses": {"type": "array", "items": {"type": "string"}},
                "requester_name": {"type": "string"},
                "reference_code": {"type": "string"},
                "process_number": {"type": "string"},
                "request_date": {"type": "string"},
                "deadline": {"type": "string"},
                "overdue": {"type": "boolean"},
                "days_until_deadline": {"type": "integer"},
                "urgent": {"type": "boolean"},
                "created_by_id": {"type": "integer"},
                "assigned_to_id": {"type": "integer"},
                "deleted_at": {"type": "string"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "handlers.ListRecordsResponse": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/handlers.RecordResponse"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.RecordsResponse": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/handlers.RecordResponse"}},
                "count": {"type": "integer"}
            }
        },
        "handlers.DashboardResponse": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "by_status": {"type": "object", "additionalProperties": {"type": "integer"}},
                "by_type": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "handlers.TriageResponse": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"type": "object"}},
                "count": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Unarchiving Record Tracker API",
	Description:      "Tracks requests to retrieve archived documents from request to return.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
