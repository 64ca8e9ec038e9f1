package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"blood-donation/internal/domain"
	"blood-donation/internal/middleware"
	"blood-donation/internal/service/inventory"
)

type InventoryHandler struct {
	inventoryService inventory.Service
}

func NewInventoryHandler(inventoryService inventory.Service) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateBloodUnitInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	unit, err := h.inventoryService.Create(c.UserContext(), middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(unit)
}

func (h *InventoryHandler) List(c *fiber.Ctx) error {
	filter := domain.BloodUnitFilter{
		Status:        queryPtr[domain.BloodUnitStatus](c, "status"),
		ComponentType: queryPtr[domain.ComponentType](c, "component"),
		BloodGroup:    queryPtr[domain.BloodGroup](c, "group"),
		BloodRh:       queryPtr[domain.RhFactor](c, "rh"),
	}
	if member := c.Query("member_id"); member != "" {
		id, err := uuid.Parse(member)
		if err != nil {
			return middleware.BadRequest("Invalid member_id")
		}
		filter.MemberID = &id
	}

	result, err := h.inventoryService.List(c.UserContext(), filter, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *InventoryHandler) ListMine(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	result, err := h.inventoryService.ListByMember(c.UserContext(), acct.ID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *InventoryHandler) SearchCompatible(c *fiber.Ctx) error {
	recipient, err := domain.NewBloodType(
		domain.BloodGroup(strings.ToUpper(c.Query("group"))),
		domain.RhFactor(strings.ToUpper(c.Query("rh"))),
	)
	if err != nil {
		return err
	}
	component := domain.ComponentType(strings.ToUpper(c.Query("component")))

	units, err := h.inventoryService.SearchCompatible(c.UserContext(), recipient, component)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(units)
}

func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	unit, err := h.inventoryService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(unit)
}

func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateBloodUnitInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	unit, err := h.inventoryService.UpdateUnit(c.UserContext(), id, middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(unit)
}

func (h *InventoryHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateBloodUnitStatusInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	unit, err := h.inventoryService.UpdateStatus(c.UserContext(), id, middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(unit)
}

func (h *InventoryHandler) Separate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.inventoryService.Separate(c.UserContext(), id, middleware.GetCurrentAccountID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *InventoryHandler) Actions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	actions, err := h.inventoryService.Actions(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(actions)
}
