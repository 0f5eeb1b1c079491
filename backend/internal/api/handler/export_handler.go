package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classflow/backend/internal/service"
	"classflow/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance 导出某课程某区间的考勤矩阵 Excel
// GET /api/v1/classes/:id/attendance/export?from=2024-01-01&to=2024-01-31
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

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

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), classID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 11001, "课程不存在")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 14001, "日期区间不合法")
	case errors.Is(err, service.ErrExportNoOccurrence):
		response.BadRequest(c, 17001, "该区间内无上课日")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
