package models

import (
	"encoding/json"
	"time"
)

// 日期键格式，每天至多一条反思记录
const DateLayout = "2006-01-02"

// Reflection 每日反思记录模型
// 晨间流程创建记录，夜间流程补全并定稿，记录不会被删除
type Reflection struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(50);uniqueIndex:idx_reflections_user_date" json:"user_id"`
	Date         string    `gorm:"type:varchar(10);uniqueIndex:idx_reflections_user_date" json:"date"`
	MorningJSON  string    `gorm:"type:text" json:"-"` // MorningData 的JSON序列化，空串表示未完成晨间流程
	NightJSON    string    `gorm:"type:text" json:"-"` // NightData 的JSON序列化，空串表示未完成夜间流程
	Score        int       `gorm:"default:0" json:"score"`        // 夜间流程定稿后的当日得分
	PendingScore int       `gorm:"default:0" json:"pendingScore"` // 定稿前的临时加减分（如晨间目标回忆失败的罚分）
	LastModified time.Time `json:"lastModified"`
}

// MorningData 晨间计划数据
type MorningData struct {
	Plan string `json:"plan"`
	Memo string `json:"memo,omitempty"`
}

// WastedEntry 浪费时间条目
type WastedEntry struct {
	Activity string `json:"activity"`
	Minutes  int    `json:"minutes"`
}

// NightData 夜间反思数据
type NightData struct {
	Memo        string        `json:"memo"`
	Wasted      []WastedEntry `json:"wasted,omitempty"`
	WastedTotal int           `json:"wastedTotal"`
	Extras      []string      `json:"extras,omitempty"`
	FinalMemo   string        `json:"finalMemo,omitempty"`
	Summary     string        `json:"summary,omitempty"` // AI生成的当日总结
}

func (r *Reflection) HasMorning() bool {
	return r.MorningJSON != ""
}

func (r *Reflection) HasNight() bool {
	return r.NightJSON != ""
}

// IsComplete 晨间和夜间都完成的记录才视为完整，可用于AI分身和日历详情
func (r *Reflection) IsComplete() bool {
	return r.HasMorning() && r.HasNight()
}

// Morning 反序列化晨间数据，未完成或数据损坏时返回nil
func (r *Reflection) Morning() *MorningData {
	if r.MorningJSON == "" {
		return nil
	}
	var m MorningData
	if err := json.Unmarshal([]byte(r.MorningJSON), &m); err != nil {
		return nil
	}
	return &m
}

// Night 反序列化夜间数据，未完成或数据损坏时返回nil
func (r *Reflection) Night() *NightData {
	if r.NightJSON == "" {
		return nil
	}
	var n NightData
	if err := json.Unmarshal([]byte(r.NightJSON), &n); err != nil {
		return nil
	}
	return &n
}

func (r *Reflection) SetMorning(m MorningData) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	r.MorningJSON = string(data)
	return nil
}

func (r *Reflection) SetNight(n NightData) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	r.NightJSON = string(data)
	return nil
}
