package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/service"
	"classflow/backend/pkg/response"
)

// CalendarHandler 日历模块 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
	eventSvc    service.EventService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService, eventSvc service.EventService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc, eventSvc: eventSvc}
}

// GetFeed 获取 [from, to) 窗口内的合并日历流
// GET /api/v1/calendar/feed?from=2024-01-01&to=2024-01-08
func (h *CalendarHandler) GetFeed(c *gin.Context) {
	var req dto.CalendarFeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	feed, err := h.calendarSvc.Feed(c.Request.Context(), &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, feed)
}

// ExportICS 导出 iCalendar 订阅文件
// GET /api/v1/calendar/ics?from=2024-01-01&to=2024-01-08
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	var req dto.CalendarFeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ics, err := h.calendarSvc.ExportICS(c.Request.Context(), &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="classflow.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// CreateEvent 创建单次活动
// POST /api/v1/events
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.Created(c, event)
}

// ListEvents 活动列表
// GET /api/v1/events?from=2024-01-01&to=2024-01-31
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
		return
	}

	events, err := h.eventSvc.List(c.Request.Context(), from, to)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// DeleteEvent 删除活动
// DELETE /api/v1/events/:id
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleCalendarError 统一处理日历与活动模块业务错误
func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 14001, "日期区间不合法")
	case errors.Is(err, service.ErrRangeTooLarge):
		response.BadRequest(c, 14002, "日期区间跨度过大")
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 15001, "活动不存在")
	case errors.Is(err, service.ErrInvalidEvent):
		response.BadRequest(c, 15002, "活动数据不合法")
	default:
		response.InternalError(c)
	}
}
