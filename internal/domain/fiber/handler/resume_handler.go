package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ardiansyah/talent-match/internal/dto"
	"github.com/ardiansyah/talent-match/internal/repository"
	"github.com/ardiansyah/talent-match/internal/response"
	"github.com/ardiansyah/talent-match/internal/usecase"
	"github.com/ardiansyah/talent-match/internal/util"
)

type ResumeHandler struct {
	resumes     *usecase.ResumeUsecase
	embeddings  *usecase.EmbeddingUsecase
	scores      *usecase.ScoreUsecase
	comparisons *usecase.ComparisonUsecase
	postings    *usecase.JobPostingUsecase
}

func NewResumeHandler(resumes *usecase.ResumeUsecase, embeddings *usecase.EmbeddingUsecase, scores *usecase.ScoreUsecase, comparisons *usecase.ComparisonUsecase, postings *usecase.JobPostingUsecase) *ResumeHandler {
	return &ResumeHandler{
		resumes:     resumes,
		embeddings:  embeddings,
		scores:      scores,
		comparisons: comparisons,
		postings:    postings,
	}
}

func (h *ResumeHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/resumes")
	api.Post("/", h.Create)
	api.Get("/", h.List)
	api.Get("/:id", h.Get)
	api.Patch("/:id", h.Update)
	api.Delete("/:id", h.Delete)
	api.Get("/:id/embedding", h.Embedding)
	api.Get("/:id/score", h.Score)
	api.Get("/:id/matches", h.Matches)
	api.Get("/:id/comparison/:jobPostingId", h.Comparison)
}

func (h *ResumeHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	resume, err := h.resumes.Create(c.Context(), req.ToModel())
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to create resume",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create resume",
		Data:    resume,
	})
}

func (h *ResumeHandler) List(c *fiber.Ctx) error {
	q := repository.ListResumesQuery{
		Skill: c.Query("skill"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
	}
	resumes, total, err := h.resumes.List(c.Context(), q)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list resumes",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success list resumes",
		Data:       resumes,
		Pagination: response.NewPagination(q.Page, q.Limit, total),
	})
}

func (h *ResumeHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	resume, err := h.resumes.Get(c.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "resume not found",
		})
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get resume",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get resume",
		Data:    resume,
	})
}

func (h *ResumeHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateResumeRequest
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

	resume, inv, err := h.resumes.Update(c.Context(), id, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "resume not found",
		})
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to update resume",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success update resume",
		Data:    resume,
		Meta:    fiber.Map{"invalidation": inv.String()},
	})
}

func (h *ResumeHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.resumes.Delete(c.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "resume not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to delete resume",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success delete resume",
	})
}

// Embedding answers from the cache when possible; a miss enqueues a job
// and returns 202 with its ID for polling.
func (h *ResumeHandler) Embedding(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.embeddings.GetOrGenerateResumeEmbedding(c.Context(), id, c.QueryBool("refresh"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get resume embedding",
		}, err)
	}
	return cacheResultResponse(c, "resume embedding", result)
}

func (h *ResumeHandler) Score(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.scores.GetOrGenerateResumeScore(c.Context(), id, c.QueryBool("refresh"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get resume score",
		}, err)
	}
	return cacheResultResponse(c, "resume score", result)
}

func (h *ResumeHandler) Comparison(c *fiber.Ctx) error {
	resumeID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	jobPostingID, err := parseID(c, "jobPostingId")
	if err != nil {
		return err
	}
	result, err := h.comparisons.GetOrGenerateComparison(c.Context(), resumeID, jobPostingID, c.QueryBool("refresh"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get comparison",
		}, err)
	}
	return cacheResultResponse(c, "comparison", result)
}

func (h *ResumeHandler) Matches(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	matches, err := h.postings.MatchForResume(c.Context(), id, c.QueryInt("top_k", 10))
	if errors.Is(err, usecase.ErrEmbeddingNotReady) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "resume embedding not ready, request it first",
		})
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to match job postings",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success match job postings",
		Data:    matches,
	})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid id",
		}, err)
	}
	return id, nil
}

func cacheResultResponse(c *fiber.Ctx, what string, result *dto.CacheResult) error {
	if result.Cached {
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Message: "Success get " + what,
			Data:    result,
		})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: what + " queued for generation",
		Data:    result,
	})
}
