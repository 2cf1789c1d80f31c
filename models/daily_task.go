package models

import "time"

// 任务类型
const (
	TaskTypeMain = "main" // 当日最重要的承诺任务
	TaskTypeSub  = "sub"  // AI拆解的子步骤或用户追加的任务
)

// 任务优先级
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// DailyTask 每日任务模型
type DailyTask struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(50);index:idx_daily_tasks_user_date" json:"user_id"`
	Date         string    `gorm:"type:varchar(10);index:idx_daily_tasks_user_date" json:"date"`
	Text         string    `gorm:"type:varchar(255)" json:"text"`
	IsCompleted  bool      `gorm:"default:false" json:"isCompleted"`
	Type         string    `gorm:"type:varchar(10)" json:"type"`     // main / sub
	Priority     string    `gorm:"type:varchar(10)" json:"priority"` // high / medium / low
	Position     int       `gorm:"default:0" json:"position"`        // 当日内的展示顺序
	LastModified time.Time `json:"lastModified"`
}
