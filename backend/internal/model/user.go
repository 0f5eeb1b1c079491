package model

// 用户角色
const (
	RoleManager = "manager"
	RoleStudent = "student"
)

// User 用户表 — 对应 users
// role: manager（馆务管理员）| student（学员）
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	Active       bool   `gorm:"not null;default:true"                          json:"active"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
