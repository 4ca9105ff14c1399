package usercontext

import "github.com/gofiber/fiber/v2"

// LocalsKey is the fiber Locals key holding the UserContext
const LocalsKey = "USER_CONTEXT"

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// Set stores the user context on the request
func Set(c *fiber.Ctx, userCtx UserContext) {
	c.Locals(LocalsKey, userCtx)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if userCtx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return userCtx
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is authenticated
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not authenticated
func GetUserID(c *fiber.Ctx) uint64 {
	return GetUserContext(c).UserID
}

// GetUsername returns the current user's name, or empty string if not authenticated
func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}
