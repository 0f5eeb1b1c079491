package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/service"
	pkgerrors "classflow/backend/pkg/errors"
	"classflow/backend/pkg/response"
)

// ClassHandler 课程模块 HTTP 处理器
type ClassHandler struct {
	classSvc service.ClassService
}

// NewClassHandler 创建 ClassHandler
func NewClassHandler(classSvc service.ClassService) *ClassHandler {
	return &ClassHandler{classSvc: classSvc}
}

// CreateClass 创建课程
// POST /api/v1/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.Created(c, class)
}

// ListClasses 课程列表
// GET /api/v1/classes?active=true
func (h *ClassHandler) ListClasses(c *gin.Context) {
	onlyActive := c.Query("active") == "true"

	classes, err := h.classSvc.List(c.Request.Context(), onlyActive)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, gin.H{"list": classes})
}

// GetClass 课程详情（含报名名单）
// GET /api/v1/classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	class, err := h.classSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, class)
}

// UpdateClass 更新课程
// PUT /api/v1/classes/:id
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, class)
}

// DeleteClass 删除课程（软删除，历史保留）
// DELETE /api/v1/classes/:id
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.classSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, nil)
}

// Enroll 报名学员
// POST /api/v1/classes/:id/enrollments
func (h *ClassHandler) Enroll(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	enrollment, err := h.classSvc.Enroll(c.Request.Context(), id, &req)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// Unenroll 移除报名
// DELETE /api/v1/classes/:id/enrollments/:enrollmentId
func (h *ClassHandler) Unenroll(c *gin.Context) {
	id := c.Param("id")
	enrollmentID := c.Param("enrollmentId")
	if id == "" || enrollmentID == "" {
		response.BadRequest(c, 10001, "课程ID与报名ID不能为空")
		return
	}

	if err := h.classSvc.Unenroll(c.Request.Context(), id, enrollmentID); err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListRoster 某天的在班名单
// GET /api/v1/classes/:id/roster?date=2024-01-08
func (h *ClassHandler) ListRoster(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
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

	roster, err := h.classSvc.ListRoster(c.Request.Context(), id, date, viewerID, viewerRole)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, gin.H{"list": roster})
}

// handleClassError 统一处理课程模块业务错误
func (h *ClassHandler) handleClassError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 11001, "课程不存在")
	case errors.Is(err, service.ErrInvalidSchedule):
		response.BadRequest(c, 11002, "课程排期不合法")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11003, "学员不存在")
	case errors.Is(err, service.ErrNotStudentRole):
		response.BadRequest(c, 11004, "只能为学员角色报名")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 11005, "该学员已报名此课程")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 11006, "报名记录不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 11007, "课程已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
