package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/BaSui01/podstudio/internal/ctxkeys"
	"github.com/BaSui01/podstudio/studio"
	"github.com/BaSui01/podstudio/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🎯 任务分发 Handler
// =============================================================================

// TaskRequest 任务请求体
type TaskRequest struct {
	Task   string          `json:"task"`
	Params json.RawMessage `json:"params,omitempty"`
}

// TaskRegistry 按名称查找任务
type TaskRegistry interface {
	Lookup(name string) (studio.Runner, bool)
}

// TaskRecorder 记录每次任务执行结果（internal/metrics.Collector 实现）
type TaskRecorder interface {
	RecordTask(task, status string, duration time.Duration)
}

// TaskHandler 单入口任务分发器
type TaskHandler struct {
	registry     TaskRegistry
	logger       *zap.Logger
	maxBodyBytes int64
	recorder     TaskRecorder
}

// NewTaskHandler 创建任务分发器，recorder 可为 nil
func NewTaskHandler(registry TaskRegistry, logger *zap.Logger, maxBodyBytes int64, recorder TaskRecorder) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		registry:     registry,
		logger:       logger.With(zap.String("component", "task_dispatcher")),
		maxBodyBytes: maxBodyBytes,
		recorder:     recorder,
	}
}

// ServeHTTP 处理 POST {task, params}
// @Summary 执行任务
// @Description 将请求路由到 generateImage / removeBackground / applyDesign / generateSeo / generateAltText
// @Tags 任务
// @Accept json
// @Produce json
// @Param request body TaskRequest true "任务请求"
// @Success 200 {object} object "任务结果"
// @Failure 400 {object} ErrorResponse "无效任务或参数"
// @Failure 405 {object} ErrorResponse "方法不允许"
// @Failure 500 {object} ErrorResponse "上游或处理错误"
// @Router /api/v1/tasks [post]
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrMethodNotAllowed, "Method Not Allowed", logger)
		return
	}

	var req TaskRequest
	if apiErr := DecodeJSONBody(w, r, &req, h.maxBodyBytes); apiErr != nil {
		WriteError(w, 0, apiErr, logger)
		return
	}

	runner, ok := h.registry.Lookup(req.Task)
	if !ok {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidTask, "Invalid task", logger.With(zap.String("task", req.Task)))
		return
	}

	logger = logger.With(zap.String("task", req.Task))
	start := time.Now()
	result, err := runner.Run(r.Context(), req.Params)
	duration := time.Since(start)

	if err != nil {
		apiErr := toAPIError(err)
		h.record(req.Task, string(apiErr.Code), duration)
		WriteError(w, taskErrorStatus(apiErr), apiErr, logger.With(zap.Duration("duration", duration)))
		return
	}

	h.record(req.Task, "success", duration)
	logger.Info("task completed", zap.Duration("duration", duration))
	WriteJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) requestLogger(r *http.Request) *zap.Logger {
	if id, ok := ctxkeys.RequestID(r.Context()); ok {
		return h.logger.With(zap.String("request_id", id))
	}
	return h.logger
}

func (h *TaskHandler) record(task, status string, d time.Duration) {
	if h.recorder != nil {
		h.recorder.RecordTask(task, status, d)
	}
}
