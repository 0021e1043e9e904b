// Package docs 由 swag 生成的 OpenAPI 文档，修改 handle 注释后执行 swag init -g cmd/notesphere/main.go 重新生成.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/license/mit/"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {"tags": ["健康检查"], "summary": "存活检查", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/auth/register": {
            "post": {"tags": ["认证"], "summary": "注册", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/auth/login": {
            "post": {"tags": ["认证"], "summary": "登录", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["认证"], "summary": "当前用户资料", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/profile": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["认证"], "summary": "更新资料", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/notes": {
            "get": {"tags": ["笔记"], "summary": "笔记列表", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/notes/upload": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["笔记"], "summary": "上传笔记", "consumes": ["multipart/form-data"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/notes/my-notes": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["笔记"], "summary": "我的笔记", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/notes/{id}": {
            "get": {"tags": ["笔记"], "summary": "笔记详情", "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["笔记"], "summary": "删除笔记", "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/notes/download/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["笔记"], "summary": "下载笔记", "produces": ["application/octet-stream"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/notes/{id}/rate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["笔记"], "summary": "评分", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/notes/{id}/summary": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["笔记"], "summary": "生成摘要", "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/admin/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["管理"], "summary": "仪表盘", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/admin/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["管理"], "summary": "用户列表", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/users/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["管理"], "summary": "更新用户", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["管理"], "summary": "删除用户", "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/notes/{id}/verify": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["管理"], "summary": "审核笔记", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/downloads/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["管理"], "summary": "导出下载记录", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "NoteSphere API",
	Description:      "NoteSphere 学习笔记共享平台：免费用户按周限额下载，会员不限量，管理员审核笔记。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
