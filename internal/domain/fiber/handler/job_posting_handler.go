package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ardiansyah/talent-match/internal/dto"
	"github.com/ardiansyah/talent-match/internal/repository"
	"github.com/ardiansyah/talent-match/internal/response"
	"github.com/ardiansyah/talent-match/internal/usecase"
	"github.com/ardiansyah/talent-match/internal/util"
)

type JobPostingHandler struct {
	postings   *usecase.JobPostingUsecase
	embeddings *usecase.EmbeddingUsecase
}

func NewJobPostingHandler(postings *usecase.JobPostingUsecase, embeddings *usecase.EmbeddingUsecase) *JobPostingHandler {
	return &JobPostingHandler{postings: postings, embeddings: embeddings}
}

func (h *JobPostingHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/job-postings")
	api.Post("/", h.Create)
	api.Get("/", h.List)
	api.Get("/:id", h.Get)
	api.Patch("/:id", h.Update)
	api.Delete("/:id", h.Delete)
	api.Get("/:id/embedding", h.Embedding)
}

func (h *JobPostingHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateJobPostingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	posting, err := h.postings.Create(c.Context(), req.ToModel())
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to create job posting",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create job posting",
		Data:    posting,
	})
}

func (h *JobPostingHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	postings, total, err := h.postings.List(c.Context(), page, limit)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list job postings",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success list job postings",
		Data:       postings,
		Pagination: response.NewPagination(page, limit, total),
	})
}

func (h *JobPostingHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	posting, err := h.postings.Get(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "job posting not found",
		})
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get job posting",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job posting",
		Data:    posting,
	})
}

func (h *JobPostingHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateJobPostingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	fields := req.Fields()
	if len(fields) == 0 {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "no fields to update",
		})
	}

	posting, inv, err := h.postings.Update(c.Context(), id, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "job posting not found",
		})
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to update job posting",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success update job posting",
		Data:    posting,
		Meta:    fiber.Map{"invalidation": inv.String()},
	})
}

func (h *JobPostingHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.postings.Delete(c.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "job posting not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to delete job posting",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success delete job posting",
	})
}

func (h *JobPostingHandler) Embedding(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.embeddings.GetOrGenerateJobPostingEmbedding(c.Context(), id, c.QueryBool("refresh"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get job posting embedding",
		}, err)
	}
	return cacheResultResponse(c, "job posting embedding", result)
}
