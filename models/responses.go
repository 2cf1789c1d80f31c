package models

import "time"

// RefundInfo 押金返还信息
type RefundInfo struct {
	Amount     int     `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// TodayStatus 当日状态
type TodayStatus struct {
	Date        string      `json:"date"`
	MorningDone bool        `json:"morningDone"`
	NightDone   bool        `json:"nightDone"`
	Tasks       []DailyTask `json:"tasks"`
}

// DashboardResponse 仪表盘响应结构体
type DashboardResponse struct {
	CumulativeScore int         `json:"cumulativeScore"`
	Streak          int         `json:"streak"`
	Refund          RefundInfo  `json:"refund"`
	Today           TodayStatus `json:"today"`
}

// CalendarDay 日历单日投影
type CalendarDay struct {
	Date      string `json:"date"`
	HasRecord bool   `json:"hasRecord"` // 当日存在反思记录（可点击）
	Completed bool   `json:"completed"` // 晨间+夜间都完成（完成圆点）
	InWindow  bool   `json:"inWindow"`  // 位于承诺窗口内
}

// GrowthPoint 成长曲线单点
type GrowthPoint struct {
	Date       string `json:"date"`
	Cumulative int    `json:"cumulative"`
}

// ReflectionResponse 反思记录响应结构体
type ReflectionResponse struct {
	Date         string       `json:"date"`
	Morning      *MorningData `json:"morning,omitempty"`
	Night        *NightData   `json:"night,omitempty"`
	Tasks        []DailyTask  `json:"tasks"`
	Score        int          `json:"score"`
	PendingScore int          `json:"pendingScore"`
	Complete     bool         `json:"complete"`
	LastModified time.Time    `json:"lastModified"`
}

// MemoResponse 备忘录响应结构体
type MemoResponse struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// SideProjectResponse 副业项目响应结构体
type SideProjectResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DueDate      *time.Time `json:"dueDate"`
	IsCompleted  bool       `json:"isCompleted"`
	LastModified time.Time  `json:"lastModified"`
}

// SyncUpdatesResponse 同步更新响应结构体
type SyncUpdatesResponse struct {
	Memos        []MemoResponse        `json:"memos"`
	SideProjects []SideProjectResponse `json:"sideProjects"`
	Tasks        []DailyTask           `json:"tasks"`
}
