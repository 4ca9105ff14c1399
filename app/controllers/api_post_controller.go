package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelBlog/app/repository"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/blog"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/usercontext"
)

// ============================================================================
// API POST CONTROLLER - Repository Pattern
// ============================================================================

// APIPostController maps the blog post operations onto JSON endpoints
type APIPostController struct {
	service *blog.Service
}

// NewAPIPostController creates a new post controller around the blog service
func NewAPIPostController(service *blog.Service) *APIPostController {
	return &APIPostController{
		service: service,
	}
}

// handleError translates service errors into HTTP responses
func (pc *APIPostController) handleError(c *fiber.Ctx, err error) error {
	var verr *blog.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "validation_failed",
			"message": verr.Error(),
			"errors":  verr.Fields,
		})
	case errors.Is(err, blog.ErrPostNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Post not found")
	case errors.Is(err, blog.ErrMalformedPayload):
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Request body must be a JSON object")
	default:
		log.Errorf("[APIPostController] %s %s failed: %v", c.Method(), c.Path(), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to process request")
	}
}

// HandleList returns one page of post summaries
func (pc *APIPostController) HandleList(c *fiber.Ctx) error {
	page, perPage := blog.ParsePagination(c.Query("page"), c.Query("per_page"))

	result, err := pc.service.List(c.UserContext(), page, perPage)
	if err != nil {
		return pc.handleError(c, err)
	}
	return c.JSON(result)
}

// HandleCreate stores a new post authored by the authenticated user
func (pc *APIPostController) HandleCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	in, err := blog.ParsePostInput(c.Body())
	if err != nil {
		return pc.handleError(c, err)
	}

	post, err := pc.service.Create(c.UserContext(), userCtx.UserID, in)
	if err != nil {
		return pc.handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleShow returns a single post with author and category
func (pc *APIPostController) HandleShow(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return pc.handleError(c, blog.ErrPostNotFound)
	}

	post, err := pc.service.Show(c.UserContext(), id)
	if err != nil {
		return pc.handleError(c, err)
	}
	return c.JSON(post)
}

// HandleUpdate replaces the editable fields of a post
func (pc *APIPostController) HandleUpdate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return pc.handleError(c, blog.ErrPostNotFound)
	}

	in, err := blog.ParsePostInput(c.Body())
	if err != nil {
		return pc.handleError(c, err)
	}

	post, err := pc.service.Update(c.UserContext(), id, in)
	if err != nil {
		return pc.handleError(c, err)
	}
	return c.JSON(post)
}

// HandleDestroy deletes a post
func (pc *APIPostController) HandleDestroy(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return pc.handleError(c, blog.ErrPostNotFound)
	}

	if err := pc.service.Destroy(c.UserContext(), id); err != nil {
		return pc.handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ============================================================================
// GLOBAL API POST CONTROLLER INSTANCE - Singleton Pattern
// ============================================================================

var apiPostController *APIPostController

// InitializeAPIPostController initializes the global post controller
func InitializeAPIPostController(notifier blog.Notifier) {
	repos := repository.GetGlobalRepositories()
	apiPostController = NewAPIPostController(blog.NewServiceFromRepositories(repos, notifier))
}

// GetAPIPostController returns the global post controller instance.
// InitializeAPIPostController must have been called first.
func GetAPIPostController() *APIPostController {
	if apiPostController == nil {
		panic("API post controller not initialized. Call InitializeAPIPostController first.")
	}
	return apiPostController
}
