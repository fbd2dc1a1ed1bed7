package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every admin and careers endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func send(c *fiber.Ctx, status int, body APIResponse, fallback string) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	if body.Message == "" {
		body.Message = fallback
	}
	return c.Status(status).JSON(body)
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus answers status with data, e.g. 201 after a create.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return send(c, status, APIResponse{Success: true, Data: data, Message: message}, "success")
}

// OK answers 200 with data and meta, typically pagination.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return send(c, fiber.StatusOK, APIResponse{Success: true, Data: data, Message: message, Meta: meta}, "success")
}

// SendError answers status with a bare error message.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail answers status with a message and optional structured details such as
// field errors or the rejected transition.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	return send(c, status, APIResponse{Message: message, Details: details}, "error")
}
