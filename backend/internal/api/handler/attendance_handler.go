package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/model"
	"classflow/backend/internal/service"
	"classflow/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// GetSheet 获取某课程某天的考勤表
// GET /api/v1/classes/:id/attendance?date=2024-01-08&edit_mode=true
func (h *AttendanceHandler) GetSheet(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	var req dto.AttendanceSheetRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
		return
	}

	viewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	viewerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	// 编辑模式只对管理员开放，学员始终走查看模式
	editMode := req.EditMode && viewerRole == model.RoleManager

	sheet, err := h.attendanceSvc.BuildSheet(c.Request.Context(), classID, date, editMode, viewerID, viewerRole)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, sheet)
}

// SaveSheet 保存某课程某天的考勤
// PUT /api/v1/classes/:id/attendance
func (h *AttendanceHandler) SaveSheet(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	var req dto.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Save(c.Request.Context(), classID, &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListStudentRecords 查询某学员的考勤记录
// GET /api/v1/students/:id/attendance
func (h *AttendanceHandler) ListStudentRecords(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	var req dto.StudentAttendanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	viewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	viewerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	// 学员只能查本人记录
	if viewerRole == model.RoleStudent && viewerID != studentID {
		h.handleAttendanceError(c, service.ErrAttendanceForbid)
		return
	}

	records, err := h.attendanceSvc.ListByStudent(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// handleAttendanceError 统一处理考勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 11001, "课程不存在")
	case errors.Is(err, service.ErrNotOccurrenceDate):
		response.BadRequest(c, 12003, "该日期不是此课程的上课日")
	case errors.Is(err, service.ErrEmptySheet):
		response.BadRequest(c, 13001, "当天无在班学员，无法保存考勤")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 13002, "考勤状态不合法")
	case errors.Is(err, service.ErrAttendanceForbid):
		response.Forbidden(c, 13003, "学员只能查看本人考勤")
	default:
		response.InternalError(c)
	}
}
