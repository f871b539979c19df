package controller

import (
	"db-rag-be/internal/config"
	"db-rag-be/internal/pkg/serverutils"
	"db-rag-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type ISystemController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type systemController struct {
	cfg          *config.Config
	catalogRepo  contract.TableCatalogRepository
	documentRepo contract.DocumentRepository
}

func NewSystemController(
	cfg *config.Config,
	catalogRepo contract.TableCatalogRepository,
	documentRepo contract.DocumentRepository,
) ISystemController {
	return &systemController{
		cfg:          cfg,
		catalogRepo:  catalogRepo,
		documentRepo: documentRepo,
	}
}

func (c *systemController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/system/v1")
	h.Get("health", c.Health)
	h.Get("status", c.Status)
}

func (c *systemController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", map[string]string{
		"status": "healthy",
	}))
}

func (c *systemController) Status(ctx *fiber.Ctx) error {
	catalogCount, err := c.catalogRepo.Count(ctx.Context())
	if err != nil {
		return err
	}
	documentCount, err := c.documentRepo.Count(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("System status", map[string]interface{}{
		"cataloged_tables": catalogCount,
		"documents":        documentCount,
		"sql_search":       c.cfg.Rag.EnableSQLSearch,
		"vector_search":    c.cfg.Rag.EnableVectorSearch,
		"llm_provider":     c.cfg.Ai.LLMProvider,
		"llm_model":        c.cfg.Ai.LLMModel,
	}))
}
