package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Scheduler API",
        "description": "Places course exams into rooms and time slots and assigns seats.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ExamSchedules", "description": "Scheduling runs, exports and seat maps"}
    ],
    "paths": {
        "/exam-schedules/runs": {
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Run the exam scheduler",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RunExamScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No rooms or no eligible dates", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Roster data unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedules/runs/async": {
            "post": {
                "tags": ["ExamSchedules"],
                "summary": "Queue an exam scheduling run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RunExamScheduleRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedules/runs/{id}": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "Get a scheduling run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedules/runs/{id}/export": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "Download the schedule of a run as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file", "schema": {"type": "file"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run pending or failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedules/exams/{id}/seats": {
            "get": {
                "tags": ["ExamSchedules"],
                "summary": "Get the seat map of an exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RunExamScheduleRequest": {
            "type": "object",
            "required": ["startDate", "endDate"],
            "properties": {
                "startDate": {"type": "string", "example": "2024-06-03"},
                "endDate": {"type": "string", "example": "2024-06-14"},
                "timesOfDay": {"type": "array", "items": {"type": "string"}, "example": ["09:00", "13:30", "17:00"]},
                "defaultDurationMinutes": {"type": "integer", "example": 75},
                "durationOverrides": {"type": "object", "additionalProperties": {"type": "integer"}},
                "minSeparationMinutes": {"type": "integer", "example": 15},
                "skipWeekends": {"type": "boolean"},
                "excludedWeekdays": {"type": "array", "items": {"type": "integer"}, "description": "1 is Monday, 7 is Sunday"},
                "excludedDates": {"type": "array", "items": {"type": "string"}},
                "enforceNoSimultaneous": {"type": "boolean"},
                "maxExamsPerGradePerDay": {"type": "integer", "example": 2},
                "roomPolicy": {"type": "string", "enum": ["smallest_fit", "round_robin"]},
                "courseIds": {"type": "array", "items": {"type": "string"}},
                "orgUnit": {"type": "string"},
                "dryRun": {"type": "boolean"}
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
