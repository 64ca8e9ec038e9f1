package handler

import (
	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
	"blood-donation/internal/middleware"
	"blood-donation/internal/service/emergency"
)

type EmergencyHandler struct {
	emergencyService emergency.Service
}

func NewEmergencyHandler(emergencyService emergency.Service) *EmergencyHandler {
	return &EmergencyHandler{emergencyService: emergencyService}
}

func (h *EmergencyHandler) Create(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input domain.CreateEmergencyRequestInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.emergencyService.Create(c.UserContext(), acct, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// List shows staff every request and everyone else their own.
func (h *EmergencyHandler) List(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	filter := domain.EmergencyRequestFilter{
		Status:        queryPtr[domain.EmergencyStatus](c, "status"),
		ComponentType: queryPtr[domain.ComponentType](c, "component"),
		BloodGroup:    queryPtr[domain.BloodGroup](c, "group"),
		BloodRh:       queryPtr[domain.RhFactor](c, "rh"),
	}
	if !acct.IsStaff() {
		filter.RequestedByID = &acct.ID
	}

	result, err := h.emergencyService.List(c.UserContext(), filter, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *EmergencyHandler) visible(c *fiber.Ctx) (*domain.EmergencyRequest, error) {
	acct, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}

	req, err := h.emergencyService.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !acct.IsStaff() && req.RequestedByID != acct.ID {
		return nil, middleware.Forbidden("Not your emergency request")
	}
	return req, nil
}

func (h *EmergencyHandler) Get(c *fiber.Ctx) error {
	req, err := h.visible(c)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *EmergencyHandler) Logs(c *fiber.Ctx) error {
	req, err := h.visible(c)
	if err != nil {
		return err
	}

	logs, err := h.emergencyService.Logs(c.UserContext(), req.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(logs)
}

func (h *EmergencyHandler) Update(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateEmergencyRequestInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.emergencyService.Update(c.UserContext(), id, acct, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *EmergencyHandler) Approve(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.ApproveEmergencyRequestInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.emergencyService.Approve(c.UserContext(), id, middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *EmergencyHandler) Reject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.RejectEmergencyRequestInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	req, err := h.emergencyService.Reject(c.UserContext(), id, middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *EmergencyHandler) BulkReject(c *fiber.Ctx) error {
	var input domain.BulkRejectEmergencyInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	count, err := h.emergencyService.BulkReject(c.UserContext(), middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"rejected": count})
}

func (h *EmergencyHandler) WaitForDonor(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input struct {
		Note *string `json:"note,omitempty"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return err
		}
	}

	req, err := h.emergencyService.MarkWaitForDonor(c.UserContext(), id, middleware.GetCurrentAccountID(c), input.Note)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *EmergencyHandler) ProvideContacts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.ProvideContactsInput
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return err
		}
	}

	req, err := h.emergencyService.ProvideContacts(c.UserContext(), id, middleware.GetCurrentAccountID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(req)
}
