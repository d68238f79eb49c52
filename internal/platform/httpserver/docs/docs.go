// Package docs holds the swagger spec httpSwagger serves at /swagger/.
// Hand-maintained in lockstep with the @Summary/@Router annotations on
// adapters/http.Handler, the same contract `swag init` would generate
// from those comments.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Rule Engine API",
        "description": "Multi-tenant rule index debug/inspection HTTP API",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/cells/{cell}/rules": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rule-engine"],
                "summary": "Get cell rules",
                "description": "Returns the rule engine's current in-memory view of a cell's rules, boxes, and timers.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Cell id",
                        "name": "cell",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rule-engine"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Rule Engine API",
	Description:      "Multi-tenant rule index debug/inspection HTTP API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
