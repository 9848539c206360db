package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// AcceptedResponse acknowledges a background job for a generation
func AcceptedResponse(c *fiber.Ctx, key, id string) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
		key:      id,
	})
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// BadRequestResponse sends a 400 for a malformed or incomplete request
func BadRequestResponse(c *fiber.Ctx, message, errorType string) error {
	return ErrorResponse(c, message, fiber.StatusBadRequest, errorType)
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// ConflictResponse sends a 409 when the record is not in a state that allows the request
func ConflictResponse(c *fiber.Ctx, message, errorType string) error {
	return ErrorResponse(c, message, fiber.StatusConflict, errorType)
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// AcceptedResponseStruct defines the schema for job acknowledgements
type AcceptedResponseStruct struct {
	Status       string `json:"status" example:"accepted"`
	GenerationID string `json:"generationId,omitempty"`
	OrgAppID     string `json:"orgAppId,omitempty"`
}
