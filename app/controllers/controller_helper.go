package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// jsonError writes the standard {"error","message"} envelope
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// parseIDParam reads a positive numeric route parameter
func parseIDParam(c *fiber.Ctx, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
