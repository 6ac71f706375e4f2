package model

import "time"

// 身份状态
const (
	ProfileActive    = "active"
	ProfileSuspended = "suspended"
)

// Profile 身份资料（只读，由外部身份系统维护）
type Profile struct {
	ID          string    `db:"id" json:"id"`
	Role        Role      `db:"role" json:"role"`
	Status      string    `db:"status" json:"status"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Actor 发起操作的身份
type Actor struct {
	ID   string
	Role Role
}

// SystemActor 定时任务等内部流程使用的身份
var SystemActor = Actor{ID: "system", Role: RoleAdmin}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.ID != "" && a.Role == RoleAdmin
}
