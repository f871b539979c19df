package controller

import (
	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/serverutils"
	"db-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("", c.Ingest)
	h.Get("", c.List)
	h.Post("search", c.Search)
	h.Delete(":id", c.Delete)
}

func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// sync=true bypasses the queue; useful for small documents and tests
	if ctx.QueryBool("sync") {
		id, err := c.documentService.AddSync(ctx.Context(), req)
		if err != nil {
			return err
		}
		return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Document stored", map[string]string{
			"id": id,
		}))
	}

	res, err := c.documentService.Ingest(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.documentService.List(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Documents", res))
}

func (c *documentController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchDocumentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	matches, err := c.documentService.Search(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Search results", matches))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	if err := c.documentService.Delete(ctx.Context(), ctx.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Document deleted", nil))
}
