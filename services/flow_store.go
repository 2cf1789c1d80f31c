package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CoMitGo/config"
)

// 流程会话在Redis中的保留时间
// 会话键按日期隔离，过期的跨天会话到期自动清理
const flowSessionTTL = 48 * time.Hour

// ChatMessage 流程内的会话消息，仅在会话生命周期内存在
type ChatMessage struct {
	Role string `json:"role"` // user / model
	Text string `json:"text"`
}

func morningSessionKey(uid, date string) string {
	return fmt.Sprintf("flow:morning:%s:%s", uid, date)
}

func nightSessionKey(uid, date string) string {
	return fmt.Sprintf("flow:night:%s:%s", uid, date)
}

// saveSession 将会话序列化后写入Redis
func saveSession(ctx context.Context, key string, session interface{}) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}
	if err := config.RedisClient.Set(ctx, key, data, flowSessionTTL).Err(); err != nil {
		return fmt.Errorf("保存会话失败: %w", err)
	}
	return nil
}

// loadSession 从Redis加载会话，不存在时返回false且不报错
func loadSession(ctx context.Context, key string, session interface{}) (bool, error) {
	data, err := config.RedisClient.Get(ctx, key).Result()
	if err != nil {
		// 不存在视为新会话，其他错误也降级为新会话并记录
		return false, nil
	}
	if err := json.Unmarshal([]byte(data), session); err != nil {
		config.Logger.Warnw("会话数据损坏，丢弃重建", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func deleteSession(ctx context.Context, key string) {
	if err := config.RedisClient.Del(ctx, key).Err(); err != nil {
		config.Logger.Warnw("删除会话失败", "key", key, "error", err)
	}
}

// SaveMorningSession 持久化晨间流程会话
func SaveMorningSession(ctx context.Context, s *MorningSession) error {
	return saveSession(ctx, morningSessionKey(s.UserID, s.Date), s)
}

// LoadMorningSession 加载晨间流程会话，不存在时返回nil
func LoadMorningSession(ctx context.Context, uid, date string) (*MorningSession, error) {
	var s MorningSession
	ok, err := loadSession(ctx, morningSessionKey(uid, date), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// DeleteMorningSession 流程定稿后清理会话
func DeleteMorningSession(ctx context.Context, uid, date string) {
	deleteSession(ctx, morningSessionKey(uid, date))
}

// SaveNightSession 持久化夜间流程会话
func SaveNightSession(ctx context.Context, s *NightSession) error {
	return saveSession(ctx, nightSessionKey(s.UserID, s.Date), s)
}

// LoadNightSession 加载夜间流程会话，不存在时返回nil
func LoadNightSession(ctx context.Context, uid, date string) (*NightSession, error) {
	var s NightSession
	ok, err := loadSession(ctx, nightSessionKey(uid, date), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// DeleteNightSession 流程定稿后清理会话
func DeleteNightSession(ctx context.Context, uid, date string) {
	deleteSession(ctx, nightSessionKey(uid, date))
}
