package respond

import (
	"errors"
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/media-service/internal/model"
)

// Success represents a standard structure for successful responses.
type Success struct {
	Result interface{} `json:"result"`
}

// Error represents a standard structure for error responses.
type Error struct {
	Message string `json:"message"`
}

// Data writes raw media bytes with the given content type.
func Data(c *ginext.Context, status int, contentType string, body []byte) {
	c.Data(status, contentType, body)
}

// JSON sends a JSON response with the specified HTTP status code and data.
// It uses the Gin context to encode the data into JSON format.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// OK sends a 200 OK JSON response, wrapping the given result in a Success struct.
func OK(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusOK, Success{Result: result})
}

// Created sends a 201 Created JSON response, wrapping the given result in a Success struct.
func Created(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusCreated, Success{Result: result})
}

// Accepted sends a 202 Accepted JSON response for work queued in the background.
func Accepted(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusAccepted, Success{Result: result})
}

// Fail sends an error JSON response with the specified HTTP status code.
// The error message is wrapped in an Error struct.
func Fail(c *ginext.Context, status int, err error) {
	c.AbortWithStatusJSON(status, Error{Message: err.Error()})
}

// FailWithError picks the status code from the error's kind.
func FailWithError(c *ginext.Context, err error) {
	Fail(c, Status(err), err)
}

// Status maps domain errors onto HTTP status codes.
func Status(err error) int {
	switch {
	case errors.Is(err, model.ErrPartialFailure):
		return http.StatusInternalServerError
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrUnknownTransformation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
