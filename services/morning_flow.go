package services

import (
	"context"
	"fmt"
	"strings"

	"CoMitGo/models"
	"CoMitGo/utils"
)

// MorningStep 晨间流程状态
type MorningStep string

const (
	MorningStepRecall    MorningStep = "recall"     // 凭记忆复述目标
	MorningStepTaskEntry MorningStep = "task_entry" // 提出任务，AI评估
	MorningStepBreakdown MorningStep = "breakdown"  // 确认AI拆解的子步骤
	MorningStepMemo      MorningStep = "memo"       // 自由备忘（可跳过）
	MorningStepDone      MorningStep = "done"       // 终态
)

// 晨间流程事件
const (
	EventSubmitRecall     = "submit_recall"
	EventSubmitTask       = "submit_task"
	EventConfirmBreakdown = "confirm_breakdown"
	EventFinishTasks      = "finish_tasks"
	EventSubmitMemo       = "submit_memo"
)

// MorningSession 晨间流程会话，每个事件后整体写回Redis
type MorningSession struct {
	UserID       string             `json:"userId"`
	Date         string             `json:"date"`
	Step         MorningStep        `json:"step"`
	Penalty      int                `json:"penalty"` // 目标回忆失败的罚分（负数），定稿时写入PendingScore
	Plan         string             `json:"plan"`
	Tasks        []models.DailyTask `json:"tasks"`
	PendingTask  string             `json:"pendingTask"`  // 已通过评估、等待确认拆解的任务
	PendingSteps []string           `json:"pendingSteps"` // AI建议的子步骤，用户可增删改
	MainCount    int                `json:"mainCount"`    // 已提交的主任务数量
	Memo         string             `json:"memo"`
	Messages     []ChatMessage      `json:"messages"`
}

// MorningFlow 晨间流程状态机
// 状态转移只由显式用户事件驱动，AI调用失败不会阻断任何转移
type MorningFlow struct {
	gateway *AIGateway
}

func NewMorningFlow(gateway *AIGateway) *MorningFlow {
	return &MorningFlow{gateway: gateway}
}

// Start 创建新的晨间会话
func (f *MorningFlow) Start(uid, date string) *MorningSession {
	s := &MorningSession{
		UserID: uid,
		Date:   date,
		Step:   MorningStepRecall,
	}
	s.pushModel("早上好。开始之前先考考你：你现在的目标是什么？凭记忆写出来。")
	return s
}

// Handle 处理一个流程事件，返回给用户的回复文案
// 返回错误仅表示事件与当前状态不匹配或输入非法，AI失败不在此列
func (f *MorningFlow) Handle(ctx context.Context, s *MorningSession, settings *models.UserSettings, ev models.FlowEventRequest) (string, error) {
	switch {
	case s.Step == MorningStepRecall && ev.Type == EventSubmitRecall:
		return f.handleRecall(ctx, s, settings, ev.Text)

	case s.Step == MorningStepTaskEntry && ev.Type == EventSubmitTask:
		return f.handleTask(ctx, s, settings, ev.Text)

	case s.Step == MorningStepBreakdown && ev.Type == EventConfirmBreakdown:
		return f.handleBreakdownConfirm(s, ev.Steps)

	case s.Step == MorningStepTaskEntry && ev.Type == EventFinishTasks:
		return f.handleFinishTasks(s)

	case s.Step == MorningStepMemo && ev.Type == EventSubmitMemo:
		return f.handleMemo(s, ev.Text)

	default:
		return "", fmt.Errorf("当前步骤%s不接受事件%s", s.Step, ev.Type)
	}
}

func (f *MorningFlow) handleRecall(ctx context.Context, s *MorningSession, settings *models.UserSettings, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("目标回忆内容不能为空")
	}

	target := settings.ThreeWeekGoal
	if target == "" {
		target = settings.LongTermGoal
	}

	matched := f.gateway.CompareGoalRecall(ctx, input, target)
	reply := applyRecall(s, input, matched)
	return reply, nil
}

// applyRecall 纯转移：记录回忆文本，未命中则记罚分，无论结果都进入任务环节
func applyRecall(s *MorningSession, input string, matched bool) string {
	s.pushUser(input)
	s.Plan = input

	var reply string
	if matched {
		reply = "没忘，很好。那今天为这个目标做的最重要的一件事是什么？"
	} else {
		s.Penalty = -RecallPenalty
		reply = fmt.Sprintf("和记录的目标对不上，扣%d分。先把目标记牢，然后说说今天最重要的一件事是什么？", RecallPenalty)
	}

	s.Step = MorningStepTaskEntry
	s.pushModel(reply)
	return reply
}

func (f *MorningFlow) handleTask(ctx context.Context, s *MorningSession, settings *models.UserSettings, task string) (string, error) {
	if strings.TrimSpace(task) == "" {
		return "", fmt.Errorf("任务内容不能为空")
	}

	isFirst := s.MainCount == 0
	judgment := f.gateway.EvaluateTask(ctx, task, settings.LongTermGoal, settings.ThreeWeekGoal, isFirst)

	if judgment.Judgment == JudgmentInsufficient {
		// 评估不通过：停留在任务环节，用户修改后重新提交，不限次数
		s.pushUser(task)
		s.pushModel(judgment.Response)
		return judgment.Response, nil
	}

	steps := f.gateway.BreakDownTask(ctx, task, settings.LongTermGoal)
	reply := applyTaskAccepted(s, task, steps, judgment.Response)
	return reply, nil
}

// applyTaskAccepted 纯转移：任务通过评估，挂起等待子步骤确认
func applyTaskAccepted(s *MorningSession, task string, steps []string, response string) string {
	s.pushUser(task)
	s.PendingTask = task
	s.PendingSteps = steps
	s.Step = MorningStepBreakdown

	reply := fmt.Sprintf("%s\n我把它拆成了%d步，你可以直接用，也可以改：\n%s",
		response, len(steps), "- "+strings.Join(steps, "\n- "))
	s.pushModel(reply)
	return reply
}

func (f *MorningFlow) handleBreakdownConfirm(s *MorningSession, steps []string) (string, error) {
	if s.PendingTask == "" {
		return "", fmt.Errorf("没有待确认的任务")
	}
	if steps == nil {
		steps = s.PendingSteps
	}
	reply := applyBreakdownConfirm(s, steps)
	return reply, nil
}

// applyBreakdownConfirm 纯转移：落定主任务和子步骤，回到任务环节供追加
// 首个主任务优先级high、子步骤medium；后续主任务medium、子步骤low
func applyBreakdownConfirm(s *MorningSession, steps []string) string {
	mainPriority := models.PriorityMedium
	subPriority := models.PriorityLow
	if s.MainCount == 0 {
		mainPriority = models.PriorityHigh
		subPriority = models.PriorityMedium
	}

	s.Tasks = append(s.Tasks, models.DailyTask{
		ID:       utils.GenerateID(),
		UserID:   s.UserID,
		Date:     s.Date,
		Text:     s.PendingTask,
		Type:     models.TaskTypeMain,
		Priority: mainPriority,
		Position: len(s.Tasks),
	})
	for _, step := range steps {
		if strings.TrimSpace(step) == "" {
			continue
		}
		s.Tasks = append(s.Tasks, models.DailyTask{
			ID:       utils.GenerateID(),
			UserID:   s.UserID,
			Date:     s.Date,
			Text:     step,
			Type:     models.TaskTypeSub,
			Priority: subPriority,
			Position: len(s.Tasks),
		})
	}

	s.MainCount++
	s.PendingTask = ""
	s.PendingSteps = nil
	s.Step = MorningStepTaskEntry

	reply := "记下了。还有要补充的任务吗？没有的话就进入今天的备忘。"
	s.pushModel(reply)
	return reply
}

func (f *MorningFlow) handleFinishTasks(s *MorningSession) (string, error) {
	if len(s.Tasks) == 0 {
		return "", fmt.Errorf("至少需要确定一个任务")
	}
	s.Step = MorningStepMemo
	reply := "最后，今天有什么想法随手记一笔？留空跳过也行。"
	s.pushModel(reply)
	return reply, nil
}

func (f *MorningFlow) handleMemo(s *MorningSession, memo string) (string, error) {
	if strings.TrimSpace(memo) != "" {
		s.pushUser(memo)
		s.Memo = memo
	}
	s.Step = MorningStepDone
	reply := "今天的计划定好了，晚上见。"
	s.pushModel(reply)
	return reply, nil
}

// MorningData 定稿时导出晨间数据
func (s *MorningSession) MorningData() models.MorningData {
	return models.MorningData{
		Plan: s.Plan,
		Memo: s.Memo,
	}
}

func (s *MorningSession) pushUser(text string) {
	s.Messages = append(s.Messages, ChatMessage{Role: "user", Text: text})
}

func (s *MorningSession) pushModel(text string) {
	s.Messages = append(s.Messages, ChatMessage{Role: "model", Text: text})
}
