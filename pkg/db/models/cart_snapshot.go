package models

import "time"

// CartSnapshot stores the serialized cart of one session.
type CartSnapshot struct {
	SessionID string     `gorm:"column:session_id;primaryKey"`
	Payload   []byte     `gorm:"column:payload;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by migrations.
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
