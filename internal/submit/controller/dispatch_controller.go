package controller

import (
	"context"
	"net/http"

	"judgegate/internal/common/metrics"
	"judgegate/internal/submit/model"
	"judgegate/internal/submit/service"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/contextkey"
	"judgegate/pkg/utils/logger"
	"judgegate/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dispatcher is the service behind the intake endpoints.
type Dispatcher interface {
	Submit(ctx context.Context, req model.SubmissionRequest) error
	Rejudge(ctx context.Context, subID string) error
}

// DispatchController handles the submission and rejudge endpoints.
type DispatchController struct {
	dispatcher Dispatcher
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// NewDispatchController creates a new DispatchController. m may be nil.
func NewDispatchController(dispatcher Dispatcher, log *zap.Logger, m *metrics.Metrics) *DispatchController {
	if log == nil {
		log = zap.NewNop()
	}
	return &DispatchController{dispatcher: dispatcher, log: log, metrics: m}
}

// Submit handles POST /submission. Every path answers 200 with exactly one receipt.
func (h *DispatchController) Submit(c *gin.Context) {
	resp := response.New(c)
	defer resp.Finish()

	log := logger.WithContext(c.Request.Context(), h.log.Named("SubmissionHandler"))

	body, err := c.GetRawData()
	if err != nil {
		log.Warn("read submission body failed", zap.Error(err))
		h.reject(resp, log, appErr.New(appErr.InvalidFormat), h.submissions)
		return
	}
	req, err := service.ParseSubmissionBody(body)
	if err != nil {
		log.Warn("submission body load failed", zap.Error(err))
		h.reject(resp, log, err, h.submissions)
		return
	}

	ctx := context.WithValue(c.Request.Context(), contextkey.SubmissionID, req.SubmissionID)
	if err := h.dispatcher.Submit(ctx, req); err != nil {
		h.reject(resp, log, err, h.submissions)
		return
	}
	h.submissions("queued")
}

// Rejudge handles GET /rejudge?sub_id=. The answer is always an empty 200.
func (h *DispatchController) Rejudge(c *gin.Context) {
	subID := c.Query("sub_id")
	ctx := context.WithValue(c.Request.Context(), contextkey.SubmissionID, subID)
	if err := h.dispatcher.Rejudge(ctx, subID); err != nil {
		h.rejudges(outcome(err))
	} else {
		h.rejudges("queued")
	}
	response.Empty(c)
}

// Health handles GET / and GET /healthz.
func (h *DispatchController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *DispatchController) reject(resp *response.Responder, log *zap.Logger, err error, count func(string)) {
	code := appErr.GetCode(err)
	log.Debug("send message", zap.String("message", code.Message()))
	resp.Reject(err)
	count(outcome(err))
}

func (h *DispatchController) submissions(label string) {
	if h.metrics != nil {
		h.metrics.Submissions.WithLabelValues(label).Inc()
	}
}

func (h *DispatchController) rejudges(label string) {
	if h.metrics != nil {
		h.metrics.Rejudges.WithLabelValues(label).Inc()
	}
}

func outcome(err error) string {
	switch appErr.GetCode(err) {
	case appErr.InvalidFormat, appErr.InvalidParams:
		return "invalid_request"
	case appErr.TokenInvalid:
		return "token_invalid"
	case appErr.SubmissionNotFound:
		return "not_found"
	case appErr.FileStructureInvalid:
		return "bad_structure"
	default:
		return "error"
	}
}
