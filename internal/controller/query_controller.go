package controller

import (
	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/serverutils"
	"db-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	QuerySQL(ctx *fiber.Ctx) error
	QueryVector(ctx *fiber.Ctx) error
}

type queryController struct {
	queryService service.IQueryService
}

func NewQueryController(queryService service.IQueryService) IQueryController {
	return &queryController{
		queryService: queryService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query/v1")
	h.Post("", c.Query)
	h.Post("sql", c.QuerySQL)
	h.Post("vector", c.QueryVector)
}

func (c *queryController) Query(ctx *fiber.Ctx) error {
	return c.answer(ctx, "")
}

// QuerySQL forces the structured retrieval path, skipping routing.
func (c *queryController) QuerySQL(ctx *fiber.Ctx) error {
	return c.answer(ctx, "sql")
}

// QueryVector forces the unstructured retrieval path, skipping routing.
func (c *queryController) QueryVector(ctx *fiber.Ctx) error {
	return c.answer(ctx, "vector")
}

func (c *queryController) answer(ctx *fiber.Ctx, forceMode string) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if forceMode != "" {
		req.Mode = forceMode
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.queryService.Query(ctx.Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Question answered", res))
}
