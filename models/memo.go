package models

import "time"

// Memo 自由备忘录模型
type Memo struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(50);index" json:"user_id"`
	Text         string    `gorm:"type:text" json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	Status       int       `gorm:"type:int;default:0" json:"status"` // 0: 正常 1: 删除
	LastModified time.Time `json:"lastModified"`
}

// SideProject 副业/兴趣项目模型
type SideProject struct {
	ID           string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID       string     `gorm:"type:varchar(50);index" json:"user_id"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	DueDate      *time.Time `json:"dueDate"`
	IsCompleted  bool       `gorm:"default:false" json:"isCompleted"`
	Status       int        `gorm:"type:int;default:0" json:"status"` // 0: 正常 1: 删除
	LastModified time.Time  `json:"lastModified"`
}
