package models

import (
	"time"
)

// 默认承诺周期（天）
const DefaultCommitmentDays = 28

// UserSettings 用户设置模型，每个用户只有一条记录
// 记录不存在即表示用户尚未完成引导流程
type UserSettings struct {
	UserID            string     `gorm:"type:varchar(50);primaryKey" json:"user_id"`
	CommitmentField   string     `gorm:"type:varchar(100)" json:"commitmentField"` // 承诺领域（如学习、健身）
	LongTermGoal      string     `gorm:"type:text" json:"longTermGoal"`
	QuarterGoal       string     `gorm:"type:text" json:"quarterGoal"`
	QuarterDeadline   *time.Time `json:"quarterDeadline"`
	ThreeWeekGoal     string     `gorm:"type:text" json:"threeWeekGoal"`
	ThreeWeekDeadline *time.Time `json:"threeWeekDeadline"`
	VisionBoardURL    string     `gorm:"type:text" json:"visionBoardUrl"`

	CommitmentStart *time.Time `json:"commitmentStart"`            // 首次承诺日期
	DepositAmount   int        `gorm:"default:0" json:"depositAmount"` // 押金金额，0表示未设置押金
	DurationDays    int        `gorm:"default:0" json:"durationDays"`  // 承诺周期天数，0表示使用默认值

	PrototypeAcknowledged bool `gorm:"default:false" json:"prototypeAcknowledged"`
	TourSeen              bool `gorm:"default:false" json:"tourSeen"`

	LastModified time.Time `json:"lastModified"`
}

// TotalCommitmentDays 返回承诺周期总天数，未设置时使用默认值
func (s *UserSettings) TotalCommitmentDays() int {
	if s.DurationDays > 0 {
		return s.DurationDays
	}
	return DefaultCommitmentDays
}

// InCommitmentWindow 判断某日期是否落在承诺窗口 [start, start+duration) 内
func (s *UserSettings) InCommitmentWindow(date time.Time) bool {
	if s.CommitmentStart == nil {
		return false
	}
	start := s.CommitmentStart.Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, s.TotalCommitmentDays())
	d := date.Truncate(24 * time.Hour)
	return !d.Before(start) && d.Before(end)
}
