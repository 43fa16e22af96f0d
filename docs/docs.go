// Package docs swagger 文档，对应 api/v0 中的注释
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
        "/api/ping": {
            "get": {
                "tags": ["检查"],
                "summary": "测试接口",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.Response"}}}
            }
        },
        "/api/health": {
            "get": {
                "tags": ["检查"],
                "summary": "健康检查",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/web.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/web.Response"}}
                }
            }
        },
        "/api/uploads/init": {
            "post": {
                "tags": ["上传"],
                "summary": "初始化上传会话",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user-id", "in": "header", "required": true},
                    {"description": "初始化参数", "name": "RequestBody", "in": "body", "required": true,
                        "schema": {"$ref": "#/definitions/models.InitUploadReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.InitUploadResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/web.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/web.Response"}}
                }
            }
        },
        "/api/uploads/{uploadId}/parts/{partIndex}": {
            "put": {
                "tags": ["上传"],
                "summary": "上传分片",
                "consumes": ["application/octet-stream"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user-id", "in": "header", "required": true},
                    {"type": "string", "description": "上传ID", "name": "uploadId", "in": "path", "required": true},
                    {"type": "integer", "description": "分片序号，从0开始", "name": "partIndex", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/web.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/web.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/web.Response"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/web.Response"}}
                }
            }
        },
        "/api/uploads/{uploadId}/status": {
            "get": {
                "tags": ["上传"],
                "summary": "查询上传进度",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user-id", "in": "header", "required": true},
                    {"type": "string", "description": "上传ID", "name": "uploadId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UploadStatusResp"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/web.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/web.Response"}}
                }
            }
        },
        "/api/uploads/{uploadId}/finalize": {
            "post": {
                "tags": ["上传"],
                "summary": "合并分片并发布",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "用户ID", "name": "user-id", "in": "header", "required": true},
                    {"type": "string", "description": "上传ID", "name": "uploadId", "in": "path", "required": true},
                    {"description": "覆盖参数", "name": "RequestBody", "in": "body",
                        "schema": {"$ref": "#/definitions/models.FinalizeUploadReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PostDto"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/web.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/web.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/web.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/web.Response"}}
                }
            }
        },
        "/api/media/{uid}": {
            "get": {
                "tags": ["下载"],
                "summary": "下载媒体",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"type": "string", "description": "媒体uid", "name": "uid", "in": "path", "required": true},
                    {"type": "string", "description": "bytes=start-end", "name": "Range", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "206": {"description": "Partial Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/web.Response"}}
                }
            }
        }
    },
    "definitions": {
        "web.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "models.InitUploadReq": {
            "type": "object",
            "required": ["contentType", "fileName", "totalSize"],
            "properties": {
                "fileName": {"type": "string", "maxLength": 256, "minLength": 1},
                "contentType": {"type": "string", "maxLength": 128, "minLength": 1},
                "totalSize": {"type": "integer", "minimum": 1},
                "contentText": {"type": "string", "maxLength": 4000},
                "tags": {"type": "array", "maxItems": 20, "items": {"type": "string"}}
            }
        },
        "models.InitUploadResp": {
            "type": "object",
            "properties": {
                "uploadId": {"type": "string"},
                "chunkSize": {"type": "integer"}
            }
        },
        "models.UploadStatusResp": {
            "type": "object",
            "properties": {
                "uploadId": {"type": "string"},
                "totalParts": {"type": "integer"},
                "uploadedPartIndices": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "models.FinalizeUploadReq": {
            "type": "object",
            "properties": {
                "contentText": {"type": "string", "maxLength": 4000},
                "tags": {"type": "array", "maxItems": 20, "items": {"type": "string"}},
                "visibility": {"type": "integer", "enum": [0, 1, 2]},
                "trimStartMs": {"type": "integer", "minimum": 0},
                "trimEndMs": {"type": "integer", "minimum": 0}
            }
        },
        "models.PostDto": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contentText": {"type": "string"},
                "mediaUrl": {"type": "string"},
                "mediaType": {"type": "integer"},
                "authorId": {"type": "string"},
                "visibility": {"type": "integer"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"}
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
	Title:            "mediaupload",
	Description:      "分片上传、合并发布和媒体下载",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
