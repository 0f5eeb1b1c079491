package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/service"
	"classflow/backend/pkg/response"
)

// ExceptionHandler 停课模块 HTTP 处理器
type ExceptionHandler struct {
	exceptionSvc service.ExceptionService
}

// NewExceptionHandler 创建 ExceptionHandler
func NewExceptionHandler(exceptionSvc service.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{exceptionSvc: exceptionSvc}
}

// CreateException 停掉一次课
// POST /api/v1/exceptions
func (h *ExceptionHandler) CreateException(c *gin.Context) {
	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exception, err := h.exceptionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.Created(c, exception)
}

// DeleteException 删除停课记录（恢复该天上课）
// DELETE /api/v1/exceptions/:id
func (h *ExceptionHandler) DeleteException(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "停课记录ID不能为空")
		return
	}

	if err := h.exceptionSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListExceptions 停课记录列表
// GET /api/v1/exceptions?class_id=&from=&to=
func (h *ExceptionHandler) ListExceptions(c *gin.Context) {
	var req dto.ExceptionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	exceptions, err := h.exceptionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": exceptions})
}

// handleExceptionError 统一处理停课模块业务错误
func (h *ExceptionHandler) handleExceptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 11001, "课程不存在")
	case errors.Is(err, service.ErrExceptionNotFound):
		response.NotFound(c, 12001, "停课记录不存在")
	case errors.Is(err, service.ErrExceptionConflict):
		response.Conflict(c, 12002, "该日期已停课")
	case errors.Is(err, service.ErrNotOccurrenceDate):
		response.BadRequest(c, 12003, "该日期不是此课程的上课日")
	case errors.Is(err, service.ErrCancellationClosed):
		response.BadRequest(c, 12004, "该节课已开始，无法停课")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 12005, "日期区间不合法")
	default:
		response.InternalError(c)
	}
}
