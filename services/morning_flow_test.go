package services

import (
	"context"
	"testing"

	"CoMitGo/models"
)

func testSettings() *models.UserSettings {
	return &models.UserSettings{
		UserID:        "u1",
		LongTermGoal:  "写一本书",
		ThreeWeekGoal: "三周内写完第一章",
	}
}

func TestMorningFlow_FullRunWithUnreachableAI(t *testing.T) {
	// AI完全不可用：整条流程仍必须能走到终态
	flow := NewMorningFlow(brokenGateway())
	ctx := context.Background()
	settings := testSettings()

	s := flow.Start("u1", "2025-03-01")
	if s.Step != MorningStepRecall {
		t.Fatalf("初始状态=%s，期望%s", s.Step, MorningStepRecall)
	}

	// 回忆目标：兜底视为命中，不罚分
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitRecall, Text: "三周内写完第一章",
	}); err != nil {
		t.Fatalf("回忆目标失败: %v", err)
	}
	if s.Penalty != 0 {
		t.Errorf("罚分=%d，期望0", s.Penalty)
	}
	if s.Step != MorningStepTaskEntry {
		t.Fatalf("状态=%s，期望%s", s.Step, MorningStepTaskEntry)
	}

	// 首个任务太短：兜底评估判insufficient，停留在任务环节
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitTask, Text: "写点东西",
	}); err != nil {
		t.Fatalf("提交任务失败: %v", err)
	}
	if s.Step != MorningStepTaskEntry {
		t.Fatalf("短任务后状态=%s，期望停留在%s", s.Step, MorningStepTaskEntry)
	}

	// 修改后重新提交：通过并进入拆解确认
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitTask, Text: "上午九点到十一点写完第一章初稿",
	}); err != nil {
		t.Fatalf("提交任务失败: %v", err)
	}
	if s.Step != MorningStepBreakdown {
		t.Fatalf("状态=%s，期望%s", s.Step, MorningStepBreakdown)
	}
	if len(s.PendingSteps) == 0 {
		t.Fatal("兜底拆解不应为空")
	}

	// 确认拆解：主任务high、子步骤medium
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventConfirmBreakdown, Steps: []string{"列提纲", "写初稿"},
	}); err != nil {
		t.Fatalf("确认拆解失败: %v", err)
	}
	if len(s.Tasks) != 3 {
		t.Fatalf("任务数=%d，期望3（1主+2子）", len(s.Tasks))
	}
	if s.Tasks[0].Type != models.TaskTypeMain || s.Tasks[0].Priority != models.PriorityHigh {
		t.Errorf("首个主任务=%+v，期望main/high", s.Tasks[0])
	}
	if s.Tasks[1].Type != models.TaskTypeSub || s.Tasks[1].Priority != models.PriorityMedium {
		t.Errorf("首批子步骤=%+v，期望sub/medium", s.Tasks[1])
	}

	// 追加第二个任务：主任务medium、子步骤low
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitTask, Text: "读完一篇参考文献并做笔记",
	}); err != nil {
		t.Fatalf("追加任务失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventConfirmBreakdown, Steps: []string{"选文献"},
	}); err != nil {
		t.Fatalf("确认拆解失败: %v", err)
	}
	second := s.Tasks[3]
	if second.Type != models.TaskTypeMain || second.Priority != models.PriorityMedium {
		t.Errorf("第二个主任务=%+v，期望main/medium", second)
	}
	if s.Tasks[4].Priority != models.PriorityLow {
		t.Errorf("第二批子步骤优先级=%s，期望low", s.Tasks[4].Priority)
	}

	// 结束任务环节，写备忘，定稿
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{Type: EventFinishTasks}); err != nil {
		t.Fatalf("结束任务环节失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitMemo, Text: "今天状态不错",
	}); err != nil {
		t.Fatalf("提交备忘失败: %v", err)
	}
	if s.Step != MorningStepDone {
		t.Fatalf("终态=%s，期望%s", s.Step, MorningStepDone)
	}

	data := s.MorningData()
	if data.Plan == "" || data.Memo != "今天状态不错" {
		t.Errorf("晨间数据=%+v，期望计划与备忘齐全", data)
	}
}

func TestMorningFlow_RecallMismatchPenalty(t *testing.T) {
	// 模型明确回答不匹配：记罚分但流程继续
	flow := NewMorningFlow(scriptedGateway("false"))
	s := flow.Start("u1", "2025-03-01")

	if _, err := flow.Handle(context.Background(), s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitRecall, Text: "完全记错的目标",
	}); err != nil {
		t.Fatalf("回忆目标失败: %v", err)
	}

	if s.Penalty != -RecallPenalty {
		t.Errorf("罚分=%d，期望%d", s.Penalty, -RecallPenalty)
	}
	if s.Step != MorningStepTaskEntry {
		t.Errorf("状态=%s，罚分不应阻断流程", s.Step)
	}
}

func TestMorningFlow_RejectsMismatchedEvents(t *testing.T) {
	flow := NewMorningFlow(brokenGateway())
	s := flow.Start("u1", "2025-03-01")

	// recall阶段不接受任务提交
	if _, err := flow.Handle(context.Background(), s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitTask, Text: "上午写完第一章初稿",
	}); err == nil {
		t.Error("recall阶段接受了任务事件")
	}

	// 空回忆被拒绝
	if _, err := flow.Handle(context.Background(), s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitRecall, Text: "   ",
	}); err == nil {
		t.Error("空回忆内容应被拒绝")
	}
}

func TestMorningFlow_FinishRequiresTask(t *testing.T) {
	flow := NewMorningFlow(brokenGateway())
	s := flow.Start("u1", "2025-03-01")

	if _, err := flow.Handle(context.Background(), s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitRecall, Text: "三周内写完第一章",
	}); err != nil {
		t.Fatal(err)
	}

	// 一个任务都没有时不能进入备忘环节
	if _, err := flow.Handle(context.Background(), s, testSettings(), models.FlowEventRequest{
		Type: EventFinishTasks,
	}); err == nil {
		t.Error("没有任务时不应允许结束任务环节")
	}
}
