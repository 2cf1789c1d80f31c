package controllers

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppendTwinHistory_FirstRoundHasNoBlankLine(t *testing.T) {
	got := appendTwinHistory("", "那天累吗", "还好，干完活挺踏实的")

	want := "用户：那天累吗\n分身：还好，干完活挺踏实的"
	if got != want {
		t.Errorf("首轮历史=%q，期望%q", got, want)
	}
	if strings.HasPrefix(got, "\n") {
		t.Error("首轮历史不应以空行开头")
	}
}

func TestAppendTwinHistory_AppendsAndCaps(t *testing.T) {
	history := ""
	for i := 0; i < twinHistoryMaxLines; i++ {
		history = appendTwinHistory(history, fmt.Sprintf("问题%d", i), fmt.Sprintf("回答%d", i))
	}

	lines := strings.Split(history, "\n")
	if len(lines) != twinHistoryMaxLines {
		t.Fatalf("历史行数=%d，期望截断到%d", len(lines), twinHistoryMaxLines)
	}
	// 保留的是最近的对话
	if lines[len(lines)-1] != fmt.Sprintf("分身：回答%d", twinHistoryMaxLines-1) {
		t.Errorf("末行=%q，期望最近一轮回复", lines[len(lines)-1])
	}
	for _, line := range lines {
		if line == "" {
			t.Fatal("截断后的历史不应包含空行")
		}
	}
}
