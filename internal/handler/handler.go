package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"blood-donation/internal/domain"
	"blood-donation/internal/middleware"
	"blood-donation/internal/service"
)

type Handlers struct {
	Webhook   *WebhookHandler
	Lookup    *LookupHandler
	Account   *AccountHandler
	Campaign  *CampaignHandler
	Donation  *DonationHandler
	Inventory *InventoryHandler
	Emergency *EmergencyHandler
	Blog      *BlogHandler
	Dashboard *DashboardHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Webhook:   NewWebhookHandler(services.Account),
		Lookup:    NewLookupHandler(services.BloodType),
		Account:   NewAccountHandler(services.Account),
		Campaign:  NewCampaignHandler(services.Campaign, services.Donation),
		Donation:  NewDonationHandler(services.Donation),
		Inventory: NewInventoryHandler(services.Inventory),
		Emergency: NewEmergencyHandler(services.Emergency),
		Blog:      NewBlogHandler(services.Blog),
		Dashboard: NewDashboardHandler(services.Dashboard),
	}
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.DefaultPagination()

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("page_size", domain.DefaultPageSize); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid " + name)
	}
	return id, nil
}

func currentAccount(c *fiber.Ctx) (*domain.Account, error) {
	account := middleware.GetCurrentAccount(c)
	if account == nil {
		return nil, middleware.Unauthorized("Account not authenticated")
	}
	return account, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	return nil
}

func queryPtr[T ~string](c *fiber.Ctx, key string) *T {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	t := T(v)
	return &t
}
