package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"CoMitGo/config"
	"CoMitGo/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// fakeModel 可编程的假模型：要么固定回复，要么固定报错
type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// capturingModel 记录最近一次收到的消息列表
type capturingModel struct {
	fakeModel
	messages []llms.MessageContent
}

func (m *capturingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	return m.fakeModel.GenerateContent(ctx, messages, options...)
}

func brokenGateway() *AIGateway {
	return NewAIGateway(&fakeModel{err: fmt.Errorf("network unreachable")}, config.Config{})
}

func scriptedGateway(reply string) *AIGateway {
	return NewAIGateway(&fakeModel{reply: reply}, config.Config{})
}

// 模型完全不可用时，每个导出方法都必须给出文档约定的兜底值
func TestGateway_FallbacksWhenModelUnreachable(t *testing.T) {
	g := brokenGateway()
	ctx := context.Background()

	if suggestions := g.GoalSuggestions(ctx, "学习"); len(suggestions) != 3 {
		t.Errorf("目标建议兜底条数=%d，期望3", len(suggestions))
	}

	if !g.CompareGoalRecall(ctx, "随便写的", "真正的目标") {
		t.Error("回忆比较兜底应为true，避免因AI不可用罚分")
	}

	if steps := g.BreakDownTask(ctx, "写完第一章", "写一本书"); len(steps) == 0 {
		t.Error("任务拆解兜底不应为空")
	}

	if sentiment := g.AnalyzeSentiment(ctx, "今天很糟"); sentiment != "positive" {
		t.Errorf("情感分析兜底=%q，期望positive", sentiment)
	}

	analysis := g.AnalyzeFailureReason(ctx, "没时间", "写第一章")
	if analysis.Analysis != AnalysisResponsibility || analysis.Response == "" {
		t.Errorf("失败原因兜底=%+v，期望responsibility且有文案", analysis)
	}

	extra := g.EvaluateExtra(ctx, "顺手修了个bug", "写一本书")
	if !extra.Meaningful || extra.Response == "" {
		t.Errorf("额外成就兜底=%+v，期望meaningful且有文案", extra)
	}

	if summary := g.NightSummary(ctx, nil, models.NightData{}); summary == "" {
		t.Error("夜间总结兜底不应为空")
	}

	if feedback := g.SpicyFeedback(ctx, []int{10, 5, -50}); feedback == "" {
		t.Error("毒舌点评兜底不应为空")
	}

	r := models.Reflection{Date: "2025-03-01"}
	r.SetMorning(models.MorningData{Plan: "写第一章"})
	r.SetNight(models.NightData{Memo: "写了一半"})
	if reply := g.TwinResponse(ctx, &r, nil, "", "那天累吗"); reply == "" {
		t.Error("AI分身兜底不应为空")
	}

	if goal := g.NextGoal(ctx, "三周写完第一章", "还行", 100); goal != "三周写完第一章" {
		t.Errorf("下期目标兜底=%q，期望沿用原目标", goal)
	}

	// 图像接口未配置时直接返回空
	if uri := g.VisionBoardImage(ctx, "写一本书", ""); uri != "" {
		t.Errorf("愿景板兜底=%q，期望空字符串", uri)
	}
}

// 单轮对话按system+human两条消息发送
func TestComplete_SendsSystemAndHumanRoles(t *testing.T) {
	model := &capturingModel{fakeModel: fakeModel{reply: "positive"}}
	g := NewAIGateway(model, config.Config{})

	g.AnalyzeSentiment(context.Background(), "今天不错")

	if len(model.messages) != 2 {
		t.Fatalf("消息数=%d，期望2", len(model.messages))
	}
	if model.messages[0].Role != schema.ChatMessageTypeSystem {
		t.Errorf("首条消息角色=%s，期望system", model.messages[0].Role)
	}
	if model.messages[1].Role != schema.ChatMessageTypeHuman {
		t.Errorf("次条消息角色=%s，期望human", model.messages[1].Role)
	}
}

func TestEvaluateTask_FallbackStrictness(t *testing.T) {
	g := brokenGateway()
	ctx := context.Background()

	// 首个任务不足10个字：从严判为insufficient
	short := g.EvaluateTask(ctx, "看书", "写一本书", "写完第一章", true)
	if short.Judgment != JudgmentInsufficient {
		t.Errorf("短任务判定=%q，期望insufficient", short.Judgment)
	}

	// 首个任务满10个字：appropriate
	long := g.EvaluateTask(ctx, "上午九点到十一点写完第一章初稿", "写一本书", "写完第一章", true)
	if long.Judgment != JudgmentAppropriate {
		t.Errorf("长任务判定=%q，期望appropriate", long.Judgment)
	}

	// 追加任务一律从宽
	sub := g.EvaluateTask(ctx, "看书", "写一本书", "写完第一章", false)
	if sub.Judgment != JudgmentAppropriate {
		t.Errorf("追加任务判定=%q，期望appropriate", sub.Judgment)
	}
}

func TestEvaluateTask_ParsesFencedJSON(t *testing.T) {
	g := scriptedGateway("```json\n{\"judgment\":\"insufficient\",\"response\":\"再具体一点\"}\n```")

	judgment := g.EvaluateTask(context.Background(), "好好学习天天向上", "目标", "目标", true)
	if judgment.Judgment != JudgmentInsufficient {
		t.Errorf("判定=%q，期望insufficient", judgment.Judgment)
	}
	if judgment.Response != "再具体一点" {
		t.Errorf("文案=%q，期望透传模型回复", judgment.Response)
	}
}

func TestEvaluateTask_GarbageJudgmentFallsBack(t *testing.T) {
	g := scriptedGateway(`{"judgment":"maybe","response":"嗯"}`)

	// 任务满10个字，兜底应判appropriate
	judgment := g.EvaluateTask(context.Background(), "上午九点到十一点写完第一章初稿", "目标", "目标", true)
	if judgment.Judgment != JudgmentAppropriate {
		t.Errorf("非法判定应回落到兜底，得到%q", judgment.Judgment)
	}
}

func TestCompareGoalRecall_ParsesVerdict(t *testing.T) {
	ctx := context.Background()

	if scriptedGateway("false").CompareGoalRecall(ctx, "a", "b") {
		t.Error("模型回答false时应判为不匹配")
	}
	if !scriptedGateway("True, they mean the same.").CompareGoalRecall(ctx, "a", "b") {
		t.Error("模型回答true时应判为匹配")
	}
}

func TestBreakDownTask_CapsAtFive(t *testing.T) {
	g := scriptedGateway(`["1","2","3","4","5","6","7"]`)

	steps := g.BreakDownTask(context.Background(), "任务", "目标")
	if len(steps) != 5 {
		t.Errorf("子步骤数=%d，期望截断到5", len(steps))
	}
}

func TestExtractJSON_Tolerant(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"前置说明 {\"a\":1} 后置说明", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := extractJSONObject(tt.in); got != tt.want {
			t.Errorf("extractJSONObject(%q) = %q，期望%q", tt.in, got, tt.want)
		}
	}

	if got := extractJSONArray("结果如下：[1,2,3]。"); got != "[1,2,3]" {
		t.Errorf("extractJSONArray = %q，期望[1,2,3]", got)
	}

	// 没有JSON时原样返回，由上层解析失败后兜底
	if got := extractJSONObject("没有任何结构"); !strings.Contains(got, "没有任何结构") {
		t.Errorf("无JSON输入被意外改写：%q", got)
	}
}
