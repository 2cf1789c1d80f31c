package services

import (
	"context"
	"fmt"
	"strings"

	"CoMitGo/models"
)

// NightStep 夜间流程状态
type NightStep string

const (
	NightStepReflection NightStep = "free_reflection" // 自由反思（唯一的必填门槛）
	NightStepTaskReview NightStep = "task_review"     // 逐项复核任务完成情况
	NightStepWastedTime NightStep = "wasted_time"     // 浪费时间记录
	NightStepExtras     NightStep = "extras"          // 计划外成就
	NightStepFinalMemo  NightStep = "final_memo"      // 收尾备忘
	NightStepDone       NightStep = "done"            // 终态
)

// 夜间流程事件
const (
	EventSubmitReflection = "submit_reflection"
	EventToggleTask       = "toggle_task"
	EventSubmitReason     = "submit_reason"
	EventFinishReview     = "finish_review"
	EventAddWasted        = "add_wasted"
	EventRemoveWasted     = "remove_wasted"
	EventFinishWasted     = "finish_wasted"
	EventAddExtra         = "add_extra"
	EventRemoveExtra      = "remove_extra"
	EventFinishExtras     = "finish_extras"
	EventSubmitFinalMemo  = "submit_final_memo"
)

// NightSession 夜间流程会话
type NightSession struct {
	UserID       string                `json:"userId"`
	Date         string                `json:"date"`
	Step         NightStep             `json:"step"`
	Memo         string                `json:"memo"`
	Tasks        []models.DailyTask    `json:"tasks"`   // 晨间任务的复核副本，定稿时写回
	Reasons      map[string]string     `json:"reasons"` // 任务ID -> 未完成原因
	Wasted       []models.WastedEntry  `json:"wasted"`
	Extras       []string              `json:"extras"`
	FinalMemo    string                `json:"finalMemo"`
	PendingScore int                   `json:"pendingScore"` // 从反思记录带入的临时加减分
	Messages     []ChatMessage         `json:"messages"`
}

// NightFlow 夜间流程状态机
type NightFlow struct {
	gateway *AIGateway
}

func NewNightFlow(gateway *AIGateway) *NightFlow {
	return &NightFlow{gateway: gateway}
}

// Start 创建夜间会话，带入晨间计划的任务和当日的临时加减分
func (f *NightFlow) Start(uid, date string, tasks []models.DailyTask, pendingScore int) *NightSession {
	s := &NightSession{
		UserID:       uid,
		Date:         date,
		Step:         NightStepReflection,
		Tasks:        tasks,
		Reasons:      make(map[string]string),
		PendingScore: pendingScore,
	}
	s.pushModel("晚上好。先别管任务，今天过得怎么样？想到什么写什么。")
	return s
}

// Handle 处理一个流程事件，返回给用户的回复文案
func (f *NightFlow) Handle(ctx context.Context, s *NightSession, settings *models.UserSettings, ev models.FlowEventRequest) (string, error) {
	switch {
	case s.Step == NightStepReflection && ev.Type == EventSubmitReflection:
		return f.handleReflection(ctx, s, ev.Text)

	case s.Step == NightStepTaskReview && ev.Type == EventToggleTask:
		return s.applyToggleTask(ev.Index)

	case s.Step == NightStepTaskReview && ev.Type == EventSubmitReason:
		return f.handleReason(ctx, s, ev.Index, ev.Text)

	case s.Step == NightStepTaskReview && ev.Type == EventFinishReview:
		return s.applyFinishReview()

	case s.Step == NightStepWastedTime && ev.Type == EventAddWasted:
		return s.applyAddWasted(ev.Activity, ev.Minutes)

	case s.Step == NightStepWastedTime && ev.Type == EventRemoveWasted:
		return s.applyRemoveWasted(ev.Index)

	case s.Step == NightStepWastedTime && ev.Type == EventFinishWasted:
		s.Step = NightStepExtras
		reply := "除了计划内的任务，今天还额外做成了什么事？"
		s.pushModel(reply)
		return reply, nil

	case s.Step == NightStepExtras && ev.Type == EventAddExtra:
		return f.handleAddExtra(ctx, s, settings, ev.Text)

	case s.Step == NightStepExtras && ev.Type == EventRemoveExtra:
		return s.applyRemoveExtra(ev.Index)

	case s.Step == NightStepExtras && ev.Type == EventFinishExtras:
		s.Step = NightStepFinalMemo
		reply := "最后再记一笔吧，写点明天的打算也行。"
		s.pushModel(reply)
		return reply, nil

	case s.Step == NightStepFinalMemo && ev.Type == EventSubmitFinalMemo:
		return s.applyFinalMemo(ev.Text)

	default:
		return "", fmt.Errorf("当前步骤%s不接受事件%s", s.Step, ev.Type)
	}
}

// handleReflection 自由反思是整条流程里唯一的必填项
func (f *NightFlow) handleReflection(ctx context.Context, s *NightSession, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("反思内容不能为空")
	}

	s.pushUser(text)
	s.Memo = text
	s.Step = NightStepTaskReview

	var reply string
	if f.gateway.AnalyzeSentiment(ctx, text) == "negative" {
		reply = "听起来今天不太顺。没关系，先把任务对一遍，看看实际做到了多少。"
	} else {
		reply = "不错的状态。来对一遍今天的任务，完成的勾掉。"
	}
	s.pushModel(reply)
	return reply, nil
}

// applyToggleTask 切换任务完成状态；取消勾选会连带清掉已填的未完成原因
func (s *NightSession) applyToggleTask(index int) (string, error) {
	if index < 0 || index >= len(s.Tasks) {
		return "", fmt.Errorf("任务下标越界")
	}
	s.Tasks[index].IsCompleted = !s.Tasks[index].IsCompleted
	if s.Tasks[index].IsCompleted {
		delete(s.Reasons, s.Tasks[index].ID)
	}
	return "", nil
}

func (f *NightFlow) handleReason(ctx context.Context, s *NightSession, index int, reason string) (string, error) {
	if index < 0 || index >= len(s.Tasks) {
		return "", fmt.Errorf("任务下标越界")
	}
	if s.Tasks[index].IsCompleted {
		return "", fmt.Errorf("已完成的任务不需要填写原因")
	}
	if strings.TrimSpace(reason) == "" {
		return "", fmt.Errorf("未完成原因不能为空")
	}

	s.pushUser(reason)
	s.Reasons[s.Tasks[index].ID] = reason

	// 判定只影响回复文案，不阻断流程
	analysis := f.gateway.AnalyzeFailureReason(ctx, reason, s.Tasks[index].Text)
	s.pushModel(analysis.Response)
	return analysis.Response, nil
}

// applyFinishReview 每个未完成任务都必须有原因才能离开复核环节
func (s *NightSession) applyFinishReview() (string, error) {
	for _, task := range s.Tasks {
		if !task.IsCompleted && s.Reasons[task.ID] == "" {
			return "", fmt.Errorf("「%s」还没有填写未完成原因", task.Text)
		}
	}
	s.Step = NightStepWastedTime
	reply := "任务对完了。今天有哪些时间花得不值？一条条记，不记也行。"
	s.pushModel(reply)
	return reply, nil
}

func (s *NightSession) applyAddWasted(activity string, minutes int) (string, error) {
	if strings.TrimSpace(activity) == "" {
		return "", fmt.Errorf("活动内容不能为空")
	}
	if minutes <= 0 {
		return "", fmt.Errorf("分钟数必须大于0")
	}
	s.Wasted = append(s.Wasted, models.WastedEntry{Activity: activity, Minutes: minutes})
	return fmt.Sprintf("记上了，目前共%d分钟。", s.WastedTotal()), nil
}

func (s *NightSession) applyRemoveWasted(index int) (string, error) {
	if index < 0 || index >= len(s.Wasted) {
		return "", fmt.Errorf("条目下标越界")
	}
	s.Wasted = append(s.Wasted[:index], s.Wasted[index+1:]...)
	return "", nil
}

func (f *NightFlow) handleAddExtra(ctx context.Context, s *NightSession, settings *models.UserSettings, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("成就内容不能为空")
	}

	s.pushUser(text)
	s.Extras = append(s.Extras, text)

	// 意义评估只改变回复，不改变计分
	judgment := f.gateway.EvaluateExtra(ctx, text, settings.LongTermGoal)
	s.pushModel(judgment.Response)
	return judgment.Response, nil
}

func (s *NightSession) applyRemoveExtra(index int) (string, error) {
	if index < 0 || index >= len(s.Extras) {
		return "", fmt.Errorf("条目下标越界")
	}
	s.Extras = append(s.Extras[:index], s.Extras[index+1:]...)
	return "", nil
}

func (s *NightSession) applyFinalMemo(text string) (string, error) {
	if strings.TrimSpace(text) != "" {
		s.pushUser(text)
		s.FinalMemo = text
	}
	s.Step = NightStepDone
	reply := fmt.Sprintf("今天到此为止，本日得分%d。好好休息。", s.ComputeScore())
	s.pushModel(reply)
	return reply, nil
}

// CompletedCount 已完成任务数
func (s *NightSession) CompletedCount() int {
	count := 0
	for _, task := range s.Tasks {
		if task.IsCompleted {
			count++
		}
	}
	return count
}

// WastedTotal 浪费时间总分钟数
func (s *NightSession) WastedTotal() int {
	total := 0
	for _, entry := range s.Wasted {
		total += entry.Minutes
	}
	return total
}

// ComputeScore 按当前会话内容计算当日得分
func (s *NightSession) ComputeScore() int {
	return NightScore(s.CompletedCount(), len(s.Extras), s.WastedTotal(), s.PendingScore)
}

// NightData 定稿时导出夜间数据
func (s *NightSession) NightData() models.NightData {
	return models.NightData{
		Memo:        s.Memo,
		Wasted:      s.Wasted,
		WastedTotal: s.WastedTotal(),
		Extras:      s.Extras,
		FinalMemo:   s.FinalMemo,
	}
}

func (s *NightSession) pushUser(text string) {
	s.Messages = append(s.Messages, ChatMessage{Role: "user", Text: text})
}

func (s *NightSession) pushModel(text string) {
	s.Messages = append(s.Messages, ChatMessage{Role: "model", Text: text})
}
