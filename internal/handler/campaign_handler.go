package handler

import (
	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
	"blood-donation/internal/middleware"
	"blood-donation/internal/service/campaign"
	"blood-donation/internal/service/donation"
	"blood-donation/internal/service/storage"
)

type CampaignHandler struct {
	campaignService campaign.Service
	donationService donation.Service
}

func NewCampaignHandler(campaignService campaign.Service, donationService donation.Service) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		donationService: donationService,
	}
}

func (h *CampaignHandler) Create(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input domain.CreateCampaignInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	created, err := h.campaignService.Create(c.UserContext(), acct.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *CampaignHandler) List(c *fiber.Ctx) error {
	result, err := h.campaignService.List(c.UserContext(), queryPtr[domain.CampaignStatus](c, "status"), getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CampaignHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	found, err := h.campaignService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(found)
}

func (h *CampaignHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateCampaignInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	updated, err := h.campaignService.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

func (h *CampaignHandler) UploadBanner(c *fiber.Ctx) error {
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

	updated, err := h.campaignService.UploadBanner(c.UserContext(), id, file.Size, file.Header.Get("Content-Type"), reader)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

func (h *CampaignHandler) Enroll(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.EnrollDonationInput
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return err
		}
	}

	enrolled, err := h.donationService.Enroll(c.UserContext(), id, acct.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(enrolled)
}

func (h *CampaignHandler) ListDonations(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.donationService.ListByCampaign(c.UserContext(), id, getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
