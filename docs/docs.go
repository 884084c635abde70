// Package docs registra la definición OpenAPI que sirve /swagger/*.
// Se regenera con `swag init -g cmd/api/main.go`; las anotaciones viven en los handlers.
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
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/pets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Listar mascotas en adopción",
                "parameters": [
                    {"type": "string", "description": "dog, cat, bird, small-animal, other", "name": "species", "in": "query"},
                    {"type": "string", "description": "small, medium, large", "name": "size", "in": "query"},
                    {"type": "string", "description": "male, female", "name": "gender", "in": "query"},
                    {"type": "string", "description": "ID de refugio", "name": "shelterId", "in": "query"},
                    {"type": "string", "description": "Busca en nombre y raza", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Máximo 100", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "filtro inválido"}
                }
            }
        },
        "/pets/{petID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pets"],
                "summary": "Detalle de mascota con su refugio",
                "parameters": [
                    {"type": "string", "description": "ID de la mascota", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "pet not found"}
                }
            }
        },
        "/pets/{petID}/applications/wizard": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Abrir el wizard de solicitud para una mascota",
                "parameters": [
                    {"type": "string", "description": "ID de la mascota", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "401": {"description": "unauthorized"},
                    "404": {"description": "pet not found"}
                }
            }
        },
        "/applications/wizard/{wizardID}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Validar el paso actual y avanzar (en el último paso, enviar)",
                "parameters": [
                    {"type": "string", "description": "ID del wizard", "name": "wizardID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "201": {"description": "solicitud enviada"},
                    "404": {"description": "wizard inexistente, vencido o ya enviado"},
                    "409": {"description": "wizard ocupado"},
                    "413": {"description": "request body too large"},
                    "422": {"description": "errores por campo"}
                }
            }
        },
        "/me/applications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["applications"],
                "summary": "Mis solicitudes con la mascota",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "unauthorized"}
                }
            }
        },
        "/pets/{petID}/favorite/toggle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["favorites"],
                "summary": "Alternar favorito",
                "parameters": [
                    {"type": "string", "description": "ID de la mascota", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "pet not found"}
                }
            }
        },
        "/me/cart/checkout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Enviar la orden por email y vaciar el carrito",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "cart is empty"},
                    "502": {"description": "checkout failed"}
                }
            }
        },
        "/me/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Mi perfil de contacto",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "unauthorized"}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Editar mi nombre y teléfono",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "invalid input"},
                    "401": {"description": "unauthorized"}
                }
            }
        },
        "/admin/pets/{petID}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Editar una mascota (admin)",
                "parameters": [
                    {"type": "string", "description": "ID de la mascota", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "invalid input"},
                    "403": {"description": "forbidden"},
                    "404": {"description": "pet not found"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Quitar una mascota del catálogo (admin)",
                "parameters": [
                    {"type": "string", "description": "ID de la mascota", "name": "petID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "forbidden"},
                    "404": {"description": "pet not found"}
                }
            }
        },
        "/admin/shelters/{shelterID}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Editar un refugio (admin)",
                "parameters": [
                    {"type": "string", "description": "ID del refugio", "name": "shelterID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "invalid input"},
                    "403": {"description": "forbidden"},
                    "404": {"description": "shelter not found"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Borrar un refugio sin mascotas (admin)",
                "parameters": [
                    {"type": "string", "description": "ID del refugio", "name": "shelterID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "forbidden"},
                    "404": {"description": "shelter not found"},
                    "409": {"description": "shelter still has pets"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Totales del panel admin",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "unauthorized"},
                    "403": {"description": "forbidden"}
                }
            }
        },
        "/auth/signin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Iniciar sesión",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "invalid credentials"},
                    "429": {"description": "too many requests"}
                }
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
	Title:            "Pet Adoption Marketplace API",
	Description:      "Catálogo de mascotas, solicitudes de adopción, favoritos y tienda.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
