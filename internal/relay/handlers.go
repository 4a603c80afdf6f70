package relay

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relaymesh/push-relay/internal/httperr"
	"github.com/relaymesh/push-relay/internal/logger"
	"github.com/relaymesh/push-relay/internal/metrics"
)

// Handler exposes the relay over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates the relay HTTP handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithComponent("relay-handler"),
	}
}

// SendNotification handles POST /api/send. The body must carry the four
// required string fields; binding failures are 400s before the core runs.
func (h *Handler) SendNotification(c *gin.Context) {
	var req RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithBadRequest(c, "invalid request payload", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	start := time.Now()
	result := h.service.Relay(c.Request.Context(), req)

	outcome := "success"
	if !result.Success {
		outcome = string(result.Kind)
	}
	metrics.ObserveRelay(outcome, time.Since(start).Seconds())

	c.JSON(statusForResult(result), result)
}

// statusForResult maps a RelayResult onto an HTTP status code.
func statusForResult(result RelayResult) int {
	if result.Success {
		return http.StatusOK
	}

	switch result.Kind {
	case FailureDecryption, FailureInvalidCredential, FailureTokenNotRegistered, FailureInvalidTokenFormat:
		return http.StatusBadRequest
	case FailureAuthentication, FailureSessionInit:
		return http.StatusUnauthorized
	case FailureProviderTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
