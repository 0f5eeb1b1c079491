package dto

// ── 考勤模块 DTO ──

// AttendanceSheetRequest 考勤表查询参数
type AttendanceSheetRequest struct {
	Date     string `form:"date"      binding:"required,datetime=2006-01-02"`
	EditMode bool   `form:"edit_mode"`
}

// SaveAttendanceRequest 保存考勤请求
// edits 为学员ID → 状态的覆盖集；未出现的在班学员按 ABSENT 落库。
type SaveAttendanceRequest struct {
	Date  string            `json:"date"  binding:"required,datetime=2006-01-02"`
	Edits map[string]string `json:"edits" binding:"dive,oneof=PRESENT ABSENT"`
}

// AttendanceEntryResponse 考勤表单行
type AttendanceEntryResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Status      string `json:"status,omitempty"` // PRESENT | ABSENT | ""（查看模式下无记录）
	Persisted   bool   `json:"persisted"`
}

// AttendanceSheetResponse 考勤表响应
type AttendanceSheetResponse struct {
	ClassID string                    `json:"class_id"`
	Date    string                    `json:"date"`
	Entries []AttendanceEntryResponse `json:"entries"`
}

// SaveAttendanceResponse 保存考勤响应
type SaveAttendanceResponse struct {
	ClassID string `json:"class_id"`
	Date    string `json:"date"`
	Saved   int    `json:"saved"`
}

// StudentAttendanceRequest 学员考勤记录查询参数
type StudentAttendanceRequest struct {
	ClassID string `form:"class_id" binding:"omitempty,uuid"`
	From    string `form:"from"     binding:"omitempty,datetime=2006-01-02"`
	To      string `form:"to"       binding:"omitempty,datetime=2006-01-02"`
}

// AttendanceRecordResponse 单条考勤记录响应
type AttendanceRecordResponse struct {
	ClassID   string `json:"class_id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}
