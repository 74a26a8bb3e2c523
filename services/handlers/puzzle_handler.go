package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

type PuzzleHandler struct {
	deliverySvc DeliveryServiceInterface
	contentSvc  ContentServiceInterface
}

func NewPuzzleHandler(deliverySvc DeliveryServiceInterface, contentSvc ContentServiceInterface) *PuzzleHandler {
	return &PuzzleHandler{
		deliverySvc: deliverySvc,
		contentSvc:  contentSvc,
	}
}

// GetDaily serves the puzzle of record for one game. The game is bound at
// route registration so the same handler backs every per-game route.
//
// @Summary Get daily puzzle
// @Description Puzzle of record for the requested date, defaulting to today in ET
// @Tags puzzles
// @Produce json
// @Param date query string false "Puzzle date (YYYY-MM-DD)"
// @Success 200 {object} shared.Response{data=dto.DailyPuzzleResponse}
// @Router /api/puzzle [get]
func (h *PuzzleHandler) GetDaily(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp, err := h.deliverySvc.GetDaily(game, c.Query("date"))
		if err != nil {
			return err
		}

		return shared.ResponseOK(c, resp)
	}
}

// @Summary Paginated puzzle archive
// @Description Past puzzles, newest first; supports conditional requests via ETag
// @Tags puzzles
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param sort query string false "asc or desc"
// @Success 200 {object} shared.Response{data=dto.PaginatedPuzzlesResponse}
// @Router /api/puzzles/paginated [get]
func (h *PuzzleHandler) GetPaginated(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		sort := c.Query("sort", "desc")

		archive, err := h.deliverySvc.GetArchivePage(game, page, limit, sort)
		if err != nil {
			return err
		}

		c.Set("Cache-Control", "private, max-age=300")
		c.Set("ETag", archive.ETag)

		if c.Get("If-None-Match") == archive.ETag {
			return c.SendStatus(http.StatusNotModified)
		}

		return shared.ResponseOK(c, archive.Response)
	}
}

// @Summary Batch puzzle fetch
// @Description Up to 100 dates in one request; future dates are filtered out
// @Tags puzzles
// @Accept json
// @Produce json
// @Param batchRequest body dto.BatchPuzzlesRequest true "Dates to fetch"
// @Success 200 {object} shared.Response{data=map[string]dto.DailyPuzzleResponse}
// @Router /api/puzzles/batch [post]
func (h *PuzzleHandler) GetBatch(game string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.BatchPuzzlesRequest
		if err := c.BodyParser(&req); err != nil {
			return err
		}

		if err := req.Validate(); err != nil {
			validationResp := dto.CreateValidationErrorResponse(err)
			return c.Status(fiber.StatusBadRequest).JSON(validationResp)
		}

		resp, err := h.deliverySvc.GetBatch(game, req.Dates)
		if err != nil {
			return err
		}

		return shared.ResponseOK(c, resp)
	}
}

// AnonymousPing accepts pre-auth completion pings from clients that have not
// signed in. The body is not trusted for anything beyond a counter.
//
// @Summary Record anonymous stats ping
// @Tags puzzles
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/puzzle [post]
func (h *PuzzleHandler) AnonymousPing(c *fiber.Ctx) error {
	var body struct {
		Game string `json:"game"`
	}
	if err := c.BodyParser(&body); err != nil || !shared.ValidGame(body.Game) {
		body.Game = shared.GameTandem
	}

	log.WithField("game", body.Game).Debug("Anonymous completion ping")

	return shared.ResponseJSON(c, http.StatusOK, "Recorded", nil)
}

// @Summary Submit a user-generated puzzle
// @Description Reel puzzle submission for editorial review; capped at 2 per day
// @Tags puzzles
// @Accept json
// @Produce json
// @Security Bearer
// @Param submitRequest body dto.SubmitPuzzleRequest true "Submission"
// @Success 201 {object} shared.Response{data=dto.SubmissionResponse}
// @Router /api/puzzles/submit [post]
func (h *PuzzleHandler) SubmitPuzzle(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.SubmitPuzzleRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.contentSvc.CreateSubmission(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Submission received", resp)
}
