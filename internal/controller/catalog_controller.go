package controller

import (
	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/serverutils"
	"db-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICatalogController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Sync(ctx *fiber.Ctx) error
}

type catalogController struct {
	catalogService service.ICatalogService
}

func NewCatalogController(catalogService service.ICatalogService) ICatalogController {
	return &catalogController{
		catalogService: catalogService,
	}
}

func (c *catalogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/catalog/v1")
	h.Get("", c.List)
	h.Get(":table", c.Get)
	h.Post("sync", c.Sync)
}

func (c *catalogController) Get(ctx *fiber.Ctx) error {
	res, err := c.catalogService.Get(ctx.Context(), ctx.Params("table"))
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Table is not cataloged")
	}
	return ctx.JSON(serverutils.SuccessResponse("Catalog entry", res))
}

func (c *catalogController) List(ctx *fiber.Ctx) error {
	res, err := c.catalogService.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Catalog entries", res))
}

func (c *catalogController) Sync(ctx *fiber.Ctx) error {
	var req dto.SyncCatalogRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	// async=true hands the sync to the background worker over NATS
	if ctx.QueryBool("async") {
		if err := c.catalogService.RequestSync(ctx.Context(), req); err != nil {
			return err
		}
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Sync requested", nil))
	}

	res, err := c.catalogService.Sync(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sync complete", res))
}
