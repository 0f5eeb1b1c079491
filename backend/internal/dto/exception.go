package dto

// ── 停课模块 DTO ──

// CreateExceptionRequest 停课请求
type CreateExceptionRequest struct {
	ClassID string `json:"class_id" binding:"required,uuid"`
	Date    string `json:"date"     binding:"required,datetime=2006-01-02"`
	Reason  string `json:"reason"   binding:"omitempty,max=500"`
}

// ExceptionListRequest 停课记录列表查询参数
type ExceptionListRequest struct {
	ClassID string `form:"class_id" binding:"omitempty,uuid"`
	From    string `form:"from"     binding:"omitempty,datetime=2006-01-02"`
	To      string `form:"to"       binding:"omitempty,datetime=2006-01-02"`
}

// ExceptionResponse 停课记录响应
type ExceptionResponse struct {
	ID        string `json:"id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}
