package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Transcript Clearance API",
        "description": "Transcript request review by Library, Bursar and Academic offices.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "TranscriptRequests", "description": "Submission, review and completion"},
        {"name": "Notifications", "description": "Notification settings and reminder sweeps"}
    ],
    "paths": {
        "/transcript-requests": {
            "get": {
                "tags": ["TranscriptRequests"],
                "summary": "List transcript requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "pending", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["TranscriptRequests"],
                "summary": "Submit a transcript request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTranscriptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcript-requests/export": {
            "get": {
                "tags": ["TranscriptRequests"],
                "summary": "Export transcript requests as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/transcript-requests/{id}": {
            "get": {
                "tags": ["TranscriptRequests"],
                "summary": "Get a transcript request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcript-requests/{id}/audit": {
            "get": {
                "tags": ["TranscriptRequests"],
                "summary": "List the journal of a transcript request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/transcript-requests/{id}/clearance-slip": {
            "get": {
                "tags": ["TranscriptRequests"],
                "summary": "Download the clearance slip",
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF file"}}
            }
        },
        "/transcript-requests/{id}/departments/{department}": {
            "patch": {
                "tags": ["TranscriptRequests"],
                "summary": "Record a department decision",
                "description": "Triggers status change notifications; Library and Bursar decisions also evaluate the Academic gate, reported in meta.academicGate.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "department", "in": "path", "required": true, "type": "string", "enum": ["LIBRARY", "BURSAR", "ACADEMIC"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDepartmentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Status outside the department vocabulary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcript-requests/{id}/status": {
            "patch": {
                "tags": ["TranscriptRequests"],
                "summary": "Change the overall request status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRequestStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Clearance incomplete or request closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notification-settings": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Get notification settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Notifications"],
                "summary": "Replace notification settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateNotificationSettingsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/reminders/sweep": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Run a reminder sweep now",
                "responses": {"200": {"description": "Sweep report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "CreateTranscriptRequest": {
            "type": "object",
            "required": ["program"],
            "properties": {
                "requestId": {"type": "string"},
                "studentId": {"type": "string"},
                "studentEmail": {"type": "string"},
                "requestor": {"type": "string"},
                "program": {"type": "string"}
            }
        },
        "UpdateDepartmentStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string"},
                "dueAmount": {"type": "string"},
                "dueDetails": {"type": "string"},
                "comments": {"type": "string"}
            }
        },
        "UpdateRequestStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["SUBMITTED", "IN_REVIEW", "PROCESSING", "COMPLETED", "CANCELLED"]},
                "comments": {"type": "string"}
            }
        },
        "UpdateNotificationSettingsRequest": {
            "type": "object",
            "required": ["enableAlerts", "enableReminders", "enableReminderLibrary", "enableReminderBursar", "enableReminderAcademic"],
            "properties": {
                "enableAlerts": {"type": "boolean"},
                "enableReminders": {"type": "boolean"},
                "enableReminderLibrary": {"type": "boolean"},
                "enableReminderBursar": {"type": "boolean"},
                "enableReminderAcademic": {"type": "boolean"},
                "libraryEmail": {"type": "string"},
                "bursarEmail": {"type": "string"},
                "academicEmail": {"type": "string"},
                "processorEmail": {"type": "string"},
                "reminderHoursLibrary": {"type": "integer"},
                "reminderHoursBursar": {"type": "integer"},
                "reminderHoursAcademic": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
