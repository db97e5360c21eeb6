// Package tags holds the wire types of the tag endpoints.
package tags

// Request is the body of POST/DELETE /tags/:content_type/:id.
type Request struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// Response confirms a tag mutation.
type Response struct {
	Success bool `json:"success"`
}
