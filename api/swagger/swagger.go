package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Registration ETL API",
        "description": "Student registration endpoint and batch ETL run control.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Health", "description": "Liveness, readiness and metrics"},
        {"name": "Registration", "description": "Single student registration"},
        {"name": "ETL", "description": "Batch load of the registration sheet"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe, checks the database",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Prometheus exposition format"}
                }
            }
        },
        "/api/register-student": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a student and optionally enroll them in a course",
                "description": "Field names ignore case, spaces, underscores and hyphens. course, credits, enrollmentDate and grade are optional; enrollmentDate is required when course is set.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/RegistrationEnvelope"}},
                    "400": {"description": "Validation errors listed in error.details", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already registered; data.student_id is the existing id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/etl/runs": {
            "post": {
                "tags": ["ETL"],
                "summary": "Queue a full extract, transform and load run",
                "produces": ["application/json"],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/RunEnvelope"}},
                    "503": {"description": "Run queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/etl/runs/{id}": {
            "get": {
                "tags": ["ETL"],
                "summary": "Run status and report",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RunEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegistrationRequest": {
            "type": "object",
            "required": ["firstName", "lastName", "email", "dateOfBirth", "year", "department"],
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string", "format": "email"},
                "dateOfBirth": {"type": "string", "example": "2001-06-15"},
                "year": {"type": "string", "example": "Junior"},
                "phoneNumber": {"type": "string"},
                "department": {"type": "string", "example": "cs"},
                "course": {"type": "string"},
                "credits": {"type": "string", "example": "four"},
                "enrollmentDate": {"type": "string"},
                "grade": {"type": "string", "example": "92"}
            }
        },
        "RegistrationResult": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["created", "already_registered", "invalid"]},
                "student_id": {"type": "integer"},
                "email": {"type": "string"},
                "course_name": {"type": "string"},
                "enrolled": {"type": "boolean"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RunSummary": {
            "type": "object",
            "properties": {
                "extracted": {"type": "integer"},
                "duplicatesRemoved": {"type": "integer"},
                "validationErrors": {"type": "integer"},
                "transformedSuccessfully": {"type": "integer"},
                "enrollmentsSkipped": {"type": "integer"},
                "loaded": {
                    "type": "object",
                    "properties": {
                        "departments": {"type": "integer"},
                        "students": {"type": "integer"},
                        "courses": {"type": "integer"},
                        "enrollments": {"type": "integer"}
                    }
                }
            }
        },
        "RunReport": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "status": {"type": "string"},
                "source": {"type": "string"},
                "startedAt": {"type": "string", "format": "date-time"},
                "timestamp": {"type": "string", "format": "date-time"},
                "duration": {"type": "string"},
                "summary": {"$ref": "#/definitions/RunSummary"},
                "validationErrors": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "rowIndex": {"type": "integer"},
                            "errors": {"type": "array", "items": {"type": "string"}}
                        }
                    }
                },
                "error": {"type": "string"},
                "files": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RunState": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "status": {"type": "string", "enum": ["queued", "running", "succeeded", "failed"]},
                "queued_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "report": {"$ref": "#/definitions/RunReport"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "RegistrationEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RegistrationResult"}
            }
        },
        "RunEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RunState"}
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
