package handler

import (
	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
	"blood-donation/internal/middleware"
	"blood-donation/internal/service/donation"
)

type DonationHandler struct {
	donationService donation.Service
}

func NewDonationHandler(donationService donation.Service) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

func (h *DonationHandler) ListMine(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	result, err := h.donationService.ListByDonor(c.UserContext(), acct.ID, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// visible loads a donation the caller may see: staff see all, donors their own.
func (h *DonationHandler) visible(c *fiber.Ctx) (*domain.CampaignDonation, error) {
	acct, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}

	found, err := h.donationService.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !acct.IsStaff() && found.DonorID != acct.ID {
		return nil, middleware.Forbidden("Not your donation")
	}
	return found, nil
}

func (h *DonationHandler) Get(c *fiber.Ctx) error {
	found, err := h.visible(c)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(found)
}

func (h *DonationHandler) Logs(c *fiber.Ctx) error {
	found, err := h.visible(c)
	if err != nil {
		return err
	}

	logs, err := h.donationService.Logs(c.UserContext(), found.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(logs)
}

func (h *DonationHandler) UpdateStatus(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateDonationStatusInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	updated, err := h.donationService.UpdateStatus(c.UserContext(), id, acct, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}
