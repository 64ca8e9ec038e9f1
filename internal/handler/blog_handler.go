package handler

import (
	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
	"blood-donation/internal/middleware"
	"blood-donation/internal/service/blog"
	"blood-donation/internal/service/storage"
)

type BlogHandler struct {
	blogService blog.Service
}

func NewBlogHandler(blogService blog.Service) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// ListPublished is the public feed.
func (h *BlogHandler) ListPublished(c *fiber.Ctx) error {
	status := domain.BlogPublished
	result, err := h.blogService.List(c.UserContext(), &status, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *BlogHandler) GetPublished(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.blogService.Get(c.UserContext(), id, false)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *BlogHandler) List(c *fiber.Ctx) error {
	result, err := h.blogService.List(c.UserContext(), queryPtr[domain.BlogStatus](c, "status"), getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *BlogHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.blogService.Get(c.UserContext(), id, true)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *BlogHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateBlogInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	post, err := h.blogService.Create(c.UserContext(), middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *BlogHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateBlogInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	post, err := h.blogService.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *BlogHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.blogService.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *BlogHandler) UploadImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return middleware.BadRequest("File is required")
	}
	if file.Size > storage.MaxImageSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Image must be at most 5MB")
	}

	reader, err := file.Open()
	if err != nil {
		return middleware.BadRequest("Failed to read file")
	}
	defer reader.Close()

	post, err := h.blogService.UploadImage(c.UserContext(), id, file.Size, file.Header.Get("Content-Type"), reader)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}
