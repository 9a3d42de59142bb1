package arena

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarena/internal/logger"
	"smarena/internal/rules"
	apperrors "smarena/pkg/errors"
	"smarena/pkg/models"
)

type Handler struct {
	evaluator *rules.Evaluator
	logger    logger.Logger
}

func NewHandler(evaluator *rules.Evaluator, log logger.Logger) *Handler {
	return &Handler{evaluator: evaluator, logger: log}
}

func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/v1/rules/validate", h.Validate)
}

// Validate runs the rule chain for one received sykmelding and reports the
// hits. Nothing is counted or sent.
func (h *Handler) Validate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondError(c, apperrors.ErrValidation.WithCause(err))
		return
	}

	var received models.ReceivedSykmelding
	if err := json.Unmarshal(body, &received); err != nil {
		h.respondError(c, apperrors.ErrValidation.WithMessage("invalid received sykmelding").WithCause(err))
		return
	}

	result, err := h.evaluator.Validate(c.Request.Context(), received.Sykmelding, rules.MetadataFor(received))
	if err != nil {
		h.respondError(c, apperrors.ErrInternal.WithCause(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if !apperrors.IsValidation(err) {
		h.logger.ErrorwCtx(c.Request.Context(), "Failed to validate sykmelding", "error", err)
	}
	c.JSON(apperrors.ToHTTPStatus(err), apperrors.ToErrorResponse(err))
}
