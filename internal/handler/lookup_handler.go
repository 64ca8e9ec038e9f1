package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
	"blood-donation/internal/service/bloodtype"
)

type LookupHandler struct {
	bloodTypeService bloodtype.Service
}

func NewLookupHandler(bloodTypeService bloodtype.Service) *LookupHandler {
	return &LookupHandler{bloodTypeService: bloodTypeService}
}

func (h *LookupHandler) ListBloodTypes(c *fiber.Ctx) error {
	types, err := h.bloodTypeService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(types)
}

func (h *LookupHandler) Donors(c *fiber.Ctx) error {
	group, rh, component := compatibilityQuery(c)
	result, err := h.bloodTypeService.Donors(group, rh, component)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *LookupHandler) Recipients(c *fiber.Ctx) error {
	group, rh, component := compatibilityQuery(c)
	result, err := h.bloodTypeService.Recipients(group, rh, component)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func compatibilityQuery(c *fiber.Ctx) (domain.BloodGroup, domain.RhFactor, domain.ComponentType) {
	return domain.BloodGroup(strings.ToUpper(c.Query("group"))),
		domain.RhFactor(strings.ToUpper(c.Query("rh"))),
		domain.ComponentType(strings.ToUpper(c.Query("component")))
}
