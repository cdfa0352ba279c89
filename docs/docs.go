// Package docs registers the OpenAPI description served at /api/scene/swagger.
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
        "/models": {
            "get": {
                "description": "Gets every model placed in the scene, hidden ones included",
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List placed models",
                "responses": {
                    "200": {
                        "description": "Placed models",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PlacedModel"}}
                    }
                }
            }
        },
        "/models/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Get a placed model",
                "parameters": [
                    {"type": "string", "description": "Model ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Model found", "schema": {"$ref": "#/definitions/models.PlacedModel"}},
                    "404": {"description": "Model not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "delete": {
                "description": "Removes the model from the scene and from the store",
                "tags": ["models"],
                "summary": "Delete a placed model",
                "parameters": [
                    {"type": "string", "description": "Model ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Model deleted"},
                    "404": {"description": "Model not found", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Store error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/models/{id}/rotation": {
            "put": {
                "description": "Sets the Euler rotation in radians, each angle wrapped into [0, 2π)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Rotate a model",
                "parameters": [
                    {"type": "string", "description": "Model ID", "name": "id", "in": "path", "required": true},
                    {"description": "Euler angles", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RotationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rotated model", "schema": {"$ref": "#/definitions/models.PlacedModel"}},
                    "400": {"description": "Invalid body", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Model not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/models/{id}/hidden": {
            "put": {
                "description": "Hidden models stay in the scene but never block other models",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Hide or show a model",
                "parameters": [
                    {"type": "string", "description": "Model ID", "name": "id", "in": "path", "required": true},
                    {"description": "Visibility", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.HiddenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated model", "schema": {"$ref": "#/definitions/models.PlacedModel"}},
                    "400": {"description": "Invalid body", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Model not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/models/{id}/bounds": {
            "put": {
                "description": "Sets the local-space box of the model body used for collision checks",
                "consumes": ["application/json"],
                "tags": ["models"],
                "summary": "Report model geometry bounds",
                "parameters": [
                    {"type": "string", "description": "Model ID", "name": "id", "in": "path", "required": true},
                    {"description": "Local bounds", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Bounds"}}
                ],
                "responses": {
                    "204": {"description": "Bounds recorded"},
                    "400": {"description": "Invalid bounds", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Model not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/placement/preview": {
            "get": {
                "description": "Returns where the next uploaded model would be placed",
                "produces": ["application/json"],
                "tags": ["placement"],
                "summary": "Preview the next placement",
                "responses": {
                    "200": {"description": "Next placement", "schema": {"$ref": "#/definitions/models.PlacementResponse"}}
                }
            }
        },
        "/drag/start": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["drag"],
                "summary": "Start dragging a model",
                "parameters": [
                    {"description": "Model and pointer ray", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DragStartRequest"}}
                ],
                "responses": {
                    "200": {"description": "Dragged model", "schema": {"$ref": "#/definitions/models.PlacedModel"}},
                    "404": {"description": "Model not found", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Another drag is in progress", "schema": {"type": "object", "additionalProperties": true}},
                    "422": {"description": "Ray misses the ground", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/drag/move": {
            "post": {
                "description": "Moves the model under the pointer unless it would overlap another visible model",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["drag"],
                "summary": "Move the dragged model",
                "parameters": [
                    {"description": "Pointer ray", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DragMoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Move outcome", "schema": {"$ref": "#/definitions/models.MoveResponse"}},
                    "409": {"description": "No drag in progress", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/drag/end": {
            "post": {
                "description": "Commits the dragged model position; a second call is a no-op",
                "produces": ["application/json"],
                "tags": ["drag"],
                "summary": "End the current drag",
                "responses": {
                    "200": {"description": "Commit outcome", "schema": {"$ref": "#/definitions/models.DragEndResponse"}}
                }
            }
        },
        "/upload": {
            "post": {
                "description": "Stores a GLB file and places a new model for it in free space",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["assets"],
                "summary": "Upload a model",
                "parameters": [
                    {"type": "file", "description": "GLB file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Model placed", "schema": {"$ref": "#/definitions/models.UploadResponse"}},
                    "400": {"description": "Upload rejected", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/cache/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Asset cache statistics",
                "responses": {
                    "200": {"description": "Per layer statistics", "schema": {"type": "array", "items": {"$ref": "#/definitions/cache.LayerStats"}}}
                }
            }
        },
        "/cache/preload": {
            "post": {
                "description": "Loads stored assets into every cache layer ahead of the viewers requesting them",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Preload assets into cache",
                "parameters": [
                    {"description": "Filenames to preload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PreloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "All assets preloaded", "schema": {"$ref": "#/definitions/metrics.PreloadReport"}},
                    "207": {"description": "Some assets failed to preload", "schema": {"$ref": "#/definitions/metrics.PreloadReport"}},
                    "400": {"description": "Bad request", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/cache/{filename}": {
            "delete": {
                "description": "Removes the asset from every cache layer; the stored file is kept",
                "tags": ["cache"],
                "summary": "Invalidate a cached asset",
                "parameters": [
                    {"type": "string", "description": "Stored filename", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Invalid filename", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "handlers.PreloadRequest": {
            "type": "object",
            "properties": {
                "filenames": {"type": "array", "items": {"type": "string"}}
            }
        },
        "metrics.PreloadReport": {
            "type": "object",
            "properties": {
                "totalLatencyMs": {"type": "number"},
                "requested": {"type": "integer"},
                "loaded": {"type": "array", "items": {"type": "string"}},
                "failed": {"type": "array", "items": {"type": "string"}},
                "totalSize": {"type": "integer"}
            }
        },
        "cache.LayerStats": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "objects": {"type": "integer"},
                "sizeBytes": {"type": "integer"},
                "hits": {"type": "integer"},
                "misses": {"type": "integer"},
                "hitRate": {"type": "number"}
            }
        },
        "models.Vector3": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"},
                "z": {"type": "number"}
            }
        },
        "models.Bounds": {
            "type": "object",
            "properties": {
                "min": {"$ref": "#/definitions/models.Vector3"},
                "max": {"$ref": "#/definitions/models.Vector3"}
            }
        },
        "models.PlacedModel": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "position": {"$ref": "#/definitions/models.Vector3"},
                "rotation": {"$ref": "#/definitions/models.Vector3"},
                "assetPath": {"type": "string"},
                "hidden": {"type": "boolean"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.Asset": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "original_filename": {"type": "string"},
                "content_type": {"type": "string"},
                "size": {"type": "integer"},
                "uploaded_at": {"type": "string"},
                "storage_key": {"type": "string"},
                "downloadURL": {"type": "string"},
                "bounds": {"$ref": "#/definitions/models.Bounds"}
            }
        },
        "models.RayRequest": {
            "type": "object",
            "properties": {
                "origin": {"$ref": "#/definitions/models.Vector3"},
                "direction": {"$ref": "#/definitions/models.Vector3"}
            }
        },
        "models.DragStartRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ray": {"$ref": "#/definitions/models.RayRequest"}
            }
        },
        "models.DragMoveRequest": {
            "type": "object",
            "properties": {
                "ray": {"$ref": "#/definitions/models.RayRequest"}
            }
        },
        "models.MoveResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "accepted": {"type": "boolean"},
                "position": {"$ref": "#/definitions/models.Vector3"},
                "blockedBy": {"type": "string"}
            }
        },
        "models.DragEndResponse": {
            "type": "object",
            "properties": {
                "committed": {"type": "boolean"},
                "model": {"$ref": "#/definitions/models.PlacedModel"}
            }
        },
        "models.RotationRequest": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"},
                "z": {"type": "number"}
            }
        },
        "models.HiddenRequest": {
            "type": "object",
            "properties": {
                "hidden": {"type": "boolean"}
            }
        },
        "models.PlacementResponse": {
            "type": "object",
            "properties": {
                "position": {"$ref": "#/definitions/models.Vector3"},
                "attempts": {"type": "integer"},
                "found": {"type": "boolean"}
            }
        },
        "models.UploadResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "downloadURL": {"type": "string"},
                "filename": {"type": "string"},
                "asset": {"$ref": "#/definitions/models.Asset"},
                "model": {"$ref": "#/definitions/models.PlacedModel"},
                "placement": {"$ref": "#/definitions/models.PlacementResponse"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/scene",
	Schemes:          []string{},
	Title:            "Scene Service API",
	Description:      "Places uploaded 3D models on a shared ground plane and keeps them from overlapping.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
