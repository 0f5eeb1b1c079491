package handler

import "classflow/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Class      *ClassHandler
	Exception  *ExceptionHandler
	Attendance *AttendanceHandler
	Calendar   *CalendarHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Class:      NewClassHandler(svc.Class),
		Exception:  NewExceptionHandler(svc.Exception),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Calendar:   NewCalendarHandler(svc.Calendar, svc.Event),
		Export:     NewExportHandler(svc.Export),
	}
}
