package models

import (
	"fmt"
	"time"
)

// DeviceLoginRequest 设备登录请求结构体
type DeviceLoginRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	Username string `json:"username"`
}

// SettingsRequest 设置保存请求结构体（引导流程完成时也走这里）
type SettingsRequest struct {
	CommitmentField   string     `json:"commitmentField"`
	LongTermGoal      string     `json:"longTermGoal" binding:"required"`
	QuarterGoal       string     `json:"quarterGoal"`
	QuarterDeadline   *time.Time `json:"quarterDeadline"`
	ThreeWeekGoal     string     `json:"threeWeekGoal"`
	ThreeWeekDeadline *time.Time `json:"threeWeekDeadline"`
	DepositAmount     int        `json:"depositAmount"`
	DurationDays      int        `json:"durationDays"`

	PrototypeAcknowledged bool `json:"prototypeAcknowledged"`
	TourSeen              bool `json:"tourSeen"`
}

func (r *SettingsRequest) Validate() error {
	if r.DepositAmount < 0 {
		return fmt.Errorf("押金金额不能为负数")
	}
	if r.DurationDays < 0 {
		return fmt.Errorf("承诺周期天数不能为负数")
	}
	return nil
}

// RenewGoalRequest 目标续期请求结构体
type RenewGoalRequest struct {
	Review string `json:"review"` // 用户对上一周期的回顾
}

// FlowStartRequest 流程启动请求结构体
type FlowStartRequest struct {
	Date string `json:"date"` // 为空时使用服务端当天日期
}

// FlowEventRequest 流程事件请求结构体，Type决定其余字段的含义
type FlowEventRequest struct {
	Type     string   `json:"type" binding:"required"`
	Text     string   `json:"text"`
	Steps    []string `json:"steps"`
	Index    int      `json:"index"`
	Activity string   `json:"activity"`
	Minutes  int      `json:"minutes"`
}

// TwinChatRequest AI分身聊天请求结构体
type TwinChatRequest struct {
	Date    string `json:"date" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// GoalSuggestionsRequest 目标建议请求结构体
type GoalSuggestionsRequest struct {
	Field string `json:"field" binding:"required"`
}

// SyncMemosRequest 备忘录同步请求结构体
type SyncMemosRequest struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	Status       int       `json:"status"`
	LastModified time.Time `json:"lastModified"`
}

func (r *SyncMemosRequest) ConvertToUTC() {
	r.CreatedAt = r.CreatedAt.UTC()
	r.LastModified = r.LastModified.UTC()
}

// SyncSideProjectsRequest 副业项目同步请求结构体
type SyncSideProjectsRequest struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DueDate      *time.Time `json:"dueDate"`
	IsCompleted  bool       `json:"isCompleted"`
	Status       int        `json:"status"`
	LastModified time.Time  `json:"lastModified"`
}

func (r *SyncSideProjectsRequest) ConvertToUTC() {
	if r.DueDate != nil {
		utcTime := r.DueDate.UTC()
		r.DueDate = &utcTime
	}
	r.LastModified = r.LastModified.UTC()
}

// SyncTasksRequest 每日任务同步请求结构体
type SyncTasksRequest struct {
	ID           string    `json:"id"`
	Date         string    `json:"date"`
	Text         string    `json:"text"`
	IsCompleted  bool      `json:"isCompleted"`
	Type         string    `json:"type"`
	Priority     string    `json:"priority"`
	Position     int       `json:"position"`
	LastModified time.Time `json:"lastModified"`
}

func (r *SyncTasksRequest) ConvertToUTC() {
	r.LastModified = r.LastModified.UTC()
}
