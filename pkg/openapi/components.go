package openapi

import "maps"

// NewComponents creates Components with shared schemas and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"TransformResult": {
				Type: "object",
				Properties: map[string]*Schema{
					"success":      {Type: "boolean", Example: true},
					"message":      {Type: "string", Description: "Human-readable result summary"},
					"download_url": {Type: "string", Description: "Download URL of the first output"},
					"outputs": {
						Type: "array",
						Items: &Schema{
							Type: "object",
							Properties: map[string]*Schema{
								"key":          {Type: "string", Description: "Artifact key"},
								"filename":     {Type: "string"},
								"size_bytes":   {Type: "integer"},
								"download_url": {Type: "string"},
							},
						},
					},
				},
			},
			"TransformError": {
				Type: "object",
				Properties: map[string]*Schema{
					"success": {Type: "boolean", Example: false},
					"error":   {Type: "string", Description: "Error message"},
					"code":    {Type: "string", Description: "Failure classification code"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest": {
				Description: "Invalid request parameters",
				Content: map[string]*MediaType{
					"application/json": {Schema: SchemaRef("TransformError")},
				},
			},
			"NotFound": {
				Description: "Resource not found",
				Content: map[string]*MediaType{
					"application/json": {
						Schema: &Schema{
							Type: "object",
							Properties: map[string]*Schema{
								"error": {Type: "string", Description: "Error message"},
							},
						},
					},
				},
			},
			"Unprocessable": {
				Description: "Document could not be processed",
				Content: map[string]*MediaType{
					"application/json": {Schema: SchemaRef("TransformError")},
				},
			},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
