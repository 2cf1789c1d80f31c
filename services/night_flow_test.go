package services

import (
	"context"
	"testing"

	"CoMitGo/models"
)

func nightTasks() []models.DailyTask {
	return []models.DailyTask{
		{ID: "t1", Text: "写完第一章初稿", Type: models.TaskTypeMain, Priority: models.PriorityHigh},
		{ID: "t2", Text: "列提纲", Type: models.TaskTypeSub, Priority: models.PriorityMedium},
	}
}

func TestNightFlow_FullRunWithUnreachableAI(t *testing.T) {
	flow := NewNightFlow(brokenGateway())
	ctx := context.Background()
	settings := testSettings()

	// 带入晨间的罚分
	s := flow.Start("u1", "2025-03-01", nightTasks(), -RecallPenalty)
	if s.Step != NightStepReflection {
		t.Fatalf("初始状态=%s，期望%s", s.Step, NightStepReflection)
	}

	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitReflection, Text: "今天整体还可以，下午有点走神",
	}); err != nil {
		t.Fatalf("提交反思失败: %v", err)
	}
	if s.Step != NightStepTaskReview {
		t.Fatalf("状态=%s，期望%s", s.Step, NightStepTaskReview)
	}

	// 勾掉第一个任务，第二个任务填原因
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventToggleTask, Index: 0,
	}); err != nil {
		t.Fatalf("切换任务失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitReason, Index: 1, Text: "低估了提纲的工作量",
	}); err != nil {
		t.Fatalf("提交原因失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventFinishReview,
	}); err != nil {
		t.Fatalf("结束复核失败: %v", err)
	}
	if s.Step != NightStepWastedTime {
		t.Fatalf("状态=%s，期望%s", s.Step, NightStepWastedTime)
	}

	// 浪费时间两条，删掉一条
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventAddWasted, Activity: "刷短视频", Minutes: 40,
	}); err != nil {
		t.Fatalf("记录浪费时间失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventAddWasted, Activity: "无意义的群聊", Minutes: 25,
	}); err != nil {
		t.Fatalf("记录浪费时间失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventRemoveWasted, Index: 1,
	}); err != nil {
		t.Fatalf("删除浪费时间失败: %v", err)
	}
	if s.WastedTotal() != 40 {
		t.Errorf("浪费总时长=%d，期望40", s.WastedTotal())
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventFinishWasted,
	}); err != nil {
		t.Fatalf("结束浪费时间环节失败: %v", err)
	}

	// 计划外成就一条
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventAddExtra, Text: "顺手帮同事改了一份稿子",
	}); err != nil {
		t.Fatalf("记录额外成就失败: %v", err)
	}
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventFinishExtras,
	}); err != nil {
		t.Fatalf("结束额外成就环节失败: %v", err)
	}

	// 收尾备忘留空也能定稿
	if _, err := flow.Handle(ctx, s, settings, models.FlowEventRequest{
		Type: EventSubmitFinalMemo, Text: "",
	}); err != nil {
		t.Fatalf("定稿失败: %v", err)
	}
	if s.Step != NightStepDone {
		t.Fatalf("终态=%s，期望%s", s.Step, NightStepDone)
	}

	// 10 + 5×1 + 5×1 − ⌊40/10⌋ + (−5) = 11
	if got := s.ComputeScore(); got != 11 {
		t.Errorf("当日得分=%d，期望11", got)
	}
	if got := NightScore(s.CompletedCount(), len(s.Extras), s.WastedTotal(), s.PendingScore); got != s.ComputeScore() {
		t.Error("会话得分与计分函数不一致")
	}

	data := s.NightData()
	if data.Memo == "" || data.WastedTotal != 40 || len(data.Extras) != 1 {
		t.Errorf("夜间数据=%+v，内容不完整", data)
	}
}

func TestNightFlow_ReflectionRequired(t *testing.T) {
	flow := NewNightFlow(brokenGateway())
	s := flow.Start("u1", "2025-03-01", nil, 0)

	if _, err := flow.Handle(context.Background(), s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReflection, Text: "  ",
	}); err == nil {
		t.Error("空反思应被拒绝")
	}
	if s.Step != NightStepReflection {
		t.Errorf("状态=%s，被拒绝后不应推进", s.Step)
	}
}

func TestNightFlow_ReviewBlockedWithoutReasons(t *testing.T) {
	flow := NewNightFlow(brokenGateway())
	ctx := context.Background()
	s := flow.Start("u1", "2025-03-01", nightTasks(), 0)

	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReflection, Text: "今天一般",
	}); err != nil {
		t.Fatal(err)
	}

	// 两个任务都没完成也没填原因：不能离开复核环节
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventFinishReview,
	}); err == nil {
		t.Error("未完成任务没有原因时不应允许结束复核")
	}

	// 给一个填原因、另一个勾成完成后放行
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReason, Index: 0, Text: "早上被别的事打断了",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventToggleTask, Index: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventFinishReview,
	}); err != nil {
		t.Errorf("条件齐备后结束复核仍失败: %v", err)
	}
}

func TestNightFlow_ToggleClearsReason(t *testing.T) {
	flow := NewNightFlow(brokenGateway())
	ctx := context.Background()
	s := flow.Start("u1", "2025-03-01", nightTasks(), 0)

	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReflection, Text: "今天一般",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReason, Index: 0, Text: "没赶上",
	}); err != nil {
		t.Fatal(err)
	}

	// 事后勾成完成：原因应被清除
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventToggleTask, Index: 0,
	}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Reasons["t1"]; ok {
		t.Error("任务完成后未完成原因应被清除")
	}

	// 已完成的任务不接受原因
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReason, Index: 0, Text: "多余的原因",
	}); err == nil {
		t.Error("已完成任务不应接受未完成原因")
	}
}

func TestNightFlow_InputValidation(t *testing.T) {
	flow := NewNightFlow(brokenGateway())
	ctx := context.Background()
	s := flow.Start("u1", "2025-03-01", nightTasks(), 0)

	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitReflection, Text: "今天一般",
	}); err != nil {
		t.Fatal(err)
	}

	// 下标越界
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventToggleTask, Index: 5,
	}); err == nil {
		t.Error("越界下标应报错")
	}

	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventToggleTask, Index: 0,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventToggleTask, Index: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventFinishReview,
	}); err != nil {
		t.Fatal(err)
	}

	// 浪费时间的分钟数必须为正
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventAddWasted, Activity: "发呆", Minutes: 0,
	}); err == nil {
		t.Error("0分钟的浪费条目应被拒绝")
	}
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventAddWasted, Activity: "  ", Minutes: 10,
	}); err == nil {
		t.Error("空活动内容应被拒绝")
	}

	// 跨环节事件被拒绝
	if _, err := flow.Handle(ctx, s, testSettings(), models.FlowEventRequest{
		Type: EventSubmitFinalMemo, Text: "提前收工",
	}); err == nil {
		t.Error("浪费时间环节不应接受收尾备忘事件")
	}
}
