package http

import (
	"github.com/gofiber/fiber/v2"

	portin "briefing_worker/core/port/in"
	"briefing_worker/core/port/out"
)

// RunHandler exposes the pipeline over HTTP: the last recorded run and
// a manual trigger.
type RunHandler struct {
	runner portin.RunUseCase
	runs   out.RunRepositoryPort
}

func NewRunHandler(runner portin.RunUseCase, runs out.RunRepositoryPort) *RunHandler {
	return &RunHandler{runner: runner, runs: runs}
}

func (h *RunHandler) Register(app *fiber.App) {
	app.Get("/runs/latest", h.Latest)
	app.Post("/runs", h.Trigger)
}

// Latest returns the most recent run summary.
func (h *RunHandler) Latest(c *fiber.Ctx) error {
	if h.runs == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "run history not configured",
		})
	}

	result, err := h.runs.LatestRun(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no runs recorded",
		})
	}
	return c.JSON(result)
}

// Trigger starts a run synchronously and returns its result.
func (h *RunHandler) Trigger(c *fiber.Ctx) error {
	result, err := h.runner.RunOnce(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(result)
}
