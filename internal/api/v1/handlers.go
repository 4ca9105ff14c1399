package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/PixelBlog/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct {
	posts *controllers.APIPostController
}

// NewAPIServer creates a new API server instance
func NewAPIServer(posts *controllers.APIPostController) *APIServer {
	return &APIServer{posts: posts}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// ListPosts returns a page of post summaries
func (s *APIServer) ListPosts(c *fiber.Ctx) error {
	return s.posts.HandleList(c)
}

// CreatePost stores a new post. Security is enforced via API key middleware attached in the router.
func (s *APIServer) CreatePost(c *fiber.Ctx) error {
	return s.posts.HandleCreate(c)
}

// GetPost returns a single post. The controller reads id from route params.
func (s *APIServer) GetPost(c *fiber.Ctx, id string) error {
	return s.posts.HandleShow(c)
}

// UpdatePost replaces a post (API key protected)
func (s *APIServer) UpdatePost(c *fiber.Ctx, id string) error {
	return s.posts.HandleUpdate(c)
}

// DeletePost removes a post (API key protected)
func (s *APIServer) DeletePost(c *fiber.Ctx, id string) error {
	return s.posts.HandleDestroy(c)
}
