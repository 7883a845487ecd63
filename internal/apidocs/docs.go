// Package apidocs registers the swagger document for the REST API in pkg/api.
// The document mirrors the swag annotations on the handlers; docs_test.go
// fails when a route is annotated but not documented.
package apidocs

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
        "/chat": {
            "post": {
                "description": "Classifies the message, generates a reply and returns the session's mood insights. Gateway failures degrade the reply instead of failing the request.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Send a chat message",
                "parameters": [
                    {
                        "description": "Message",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.chatRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.chatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reset_session": {
            "post": {
                "description": "Discards the session's history and mood tally. An empty body resets the default session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Reset a session",
                "parameters": [
                    {
                        "description": "Session",
                        "name": "body",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/api.resetRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.resetResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/v1/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.sessionListResponse"}}
                }
            }
        },
        "/api/v1/sessions/{id}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete a session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{id}/insights": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get session mood insights",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.insightsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/v1/exchanges": {
            "get": {
                "description": "Returns recorded exchanges, newest first. Requires a configured database.",
                "produces": ["application/json"],
                "tags": ["Exchanges"],
                "summary": "List recorded exchanges",
                "parameters": [
                    {"type": "string", "description": "Filter by session", "name": "session_id", "in": "query"},
                    {"type": "boolean", "description": "Only degraded or only clean exchanges", "name": "degraded", "in": "query"},
                    {"type": "string", "description": "Exchanges after this time (RFC 3339)", "name": "start_time", "in": "query"},
                    {"type": "string", "description": "Exchanges before this time (RFC 3339)", "name": "end_time", "in": "query"},
                    {"type": "integer", "description": "Page size (default: 50)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.exchangeListResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.healthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.healthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.chatRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "api.chatResponse": {
            "type": "object",
            "properties": {
                "degraded": {"type": "boolean"},
                "emotion": {"type": "string"},
                "mood_insights": {"$ref": "#/definitions/conversation.MoodInsight"},
                "reply": {"type": "string"},
                "session_id": {"type": "string"},
                "session_stats": {"$ref": "#/definitions/chatbot.Stats"}
            }
        },
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "api.exchangeListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/transcript.Exchange"}},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "api.healthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "model": {"type": "string"},
                "state": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "api.insightsResponse": {
            "type": "object",
            "properties": {
                "mood_insights": {"$ref": "#/definitions/conversation.MoodInsight"},
                "session_id": {"type": "string"},
                "session_stats": {"$ref": "#/definitions/chatbot.Stats"}
            }
        },
        "api.resetRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "api.resetResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "api.sessionListResponse": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/conversation.Info"}},
                "stats": {"$ref": "#/definitions/conversation.Stats"}
            }
        },
        "chatbot.Stats": {
            "type": "object",
            "properties": {
                "message_count": {"type": "integer"},
                "session_duration": {"type": "string"}
            }
        },
        "conversation.Balance": {
            "type": "object",
            "properties": {
                "negative": {"type": "integer"},
                "neutral": {"type": "integer"},
                "positive": {"type": "integer"}
            }
        },
        "conversation.Info": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "last_active_at": {"type": "string"},
                "message_count": {"type": "integer"},
                "session_id": {"type": "string"}
            }
        },
        "conversation.MoodInsight": {
            "type": "object",
            "properties": {
                "current_mood": {"type": "string"},
                "distribution": {"type": "object", "additionalProperties": {"type": "integer"}},
                "dominant_emotion": {"type": "string"},
                "emotional_balance": {"$ref": "#/definitions/conversation.Balance"},
                "risk_level": {"type": "string", "enum": ["low", "moderate", "high"]},
                "sample_size": {"type": "integer"},
                "suggestions": {"type": "array", "items": {"type": "string"}},
                "trend": {"type": "string", "enum": ["improving", "declining", "stable", "insufficient_data"]},
                "urgent_intervention_needed": {"type": "boolean"}
            }
        },
        "conversation.Stats": {
            "type": "object",
            "properties": {
                "history_window_size": {"type": "integer"},
                "idle_ttl_ns": {"type": "integer"},
                "sessions": {"type": "integer"}
            }
        },
        "transcript.Exchange": {
            "type": "object",
            "properties": {
                "classification_error": {"type": "string"},
                "duration_ms": {"type": "integer"},
                "emotion": {"type": "string"},
                "id": {"type": "string"},
                "message_chars": {"type": "integer"},
                "raw_label": {"type": "string"},
                "reply_chars": {"type": "integer"},
                "reply_error": {"type": "string"},
                "reply_text": {"type": "string"},
                "request_id": {"type": "string"},
                "risk_level": {"type": "string"},
                "session_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "user_text": {"type": "string"}
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
	Title:            "moodchat API",
	Description:      "Emotion-aware chat backend with per-session mood insights.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
