package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// ServerInterface represents all server handlers of the v1 API
type ServerInterface interface {
	// Liveness check
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// List posts, newest first
	// (GET /posts)
	ListPosts(c *fiber.Ctx) error
	// Create a post
	// (POST /posts)
	CreatePost(c *fiber.Ctx) error
	// Show a post
	// (GET /posts/{id})
	GetPost(c *fiber.Ctx, id string) error
	// Replace a post
	// (PUT /posts/{id})
	UpdatePost(c *fiber.Ctx, id string) error
	// Delete a post
	// (DELETE /posts/{id})
	DeletePost(c *fiber.Ctx, id string) error
}

// ServerInterfaceWrapper converts fiber contexts to parameters
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// GetPing operation middleware
func (siw *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return siw.Handler.GetPing(c)
}

// ListPosts operation middleware
func (siw *ServerInterfaceWrapper) ListPosts(c *fiber.Ctx) error {
	return siw.Handler.ListPosts(c)
}

// CreatePost operation middleware
func (siw *ServerInterfaceWrapper) CreatePost(c *fiber.Ctx) error {
	return siw.Handler.CreatePost(c)
}

// GetPost operation middleware
func (siw *ServerInterfaceWrapper) GetPost(c *fiber.Ctx) error {
	return siw.Handler.GetPost(c, c.Params("id"))
}

// UpdatePost operation middleware
func (siw *ServerInterfaceWrapper) UpdatePost(c *fiber.Ctx) error {
	return siw.Handler.UpdatePost(c, c.Params("id"))
}

// DeletePost operation middleware
func (siw *ServerInterfaceWrapper) DeletePost(c *fiber.Ctx) error {
	return siw.Handler.DeletePost(c, c.Params("id"))
}

// FiberServerOptions provides options for the Fiber server.
type FiberServerOptions struct {
	BaseURL string
	// Protected runs before every write operation
	Protected []fiber.Handler
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, FiberServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router fiber.Router, si ServerInterface, options FiberServerOptions) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	protected := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, options.Protected...), h)
	}

	router.Get(options.BaseURL+"/ping", wrapper.GetPing)

	router.Get(options.BaseURL+"/posts", wrapper.ListPosts)
	router.Post(options.BaseURL+"/posts", protected(wrapper.CreatePost)...)

	router.Get(options.BaseURL+"/posts/:id", wrapper.GetPost)
	router.Put(options.BaseURL+"/posts/:id", protected(wrapper.UpdatePost)...)
	router.Patch(options.BaseURL+"/posts/:id", protected(wrapper.UpdatePost)...)
	router.Delete(options.BaseURL+"/posts/:id", protected(wrapper.DeletePost)...)
}
