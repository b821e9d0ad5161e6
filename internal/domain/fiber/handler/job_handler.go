package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ardiansyah/talent-match/internal/dto"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/util"
)

// JobHandler exposes the polling endpoint for background job handles
// returned by the cache-miss responses.
type JobHandler struct {
	queue *queue.Manager
}

func NewJobHandler(qm *queue.Manager) *JobHandler {
	return &JobHandler{queue: qm}
}

func (h *JobHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/jobs/:id/status", h.Status)
}

func (h *JobHandler) Status(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	job, err := h.queue.Status(c.Context(), id)
	if errors.Is(err, queue.ErrJobNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "job not found",
		})
	}
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to get job status",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job status",
		Data:    dto.NewJobStatusDTO(job),
	})
}
