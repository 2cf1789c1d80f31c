package models

import (
	"reflect"
	"testing"
)

func TestReflection_RoundTrip(t *testing.T) {
	morning := MorningData{
		Plan: "上午写完第一章初稿",
		Memo: "状态不错",
	}
	night := NightData{
		Memo:        "整体还行，下午走神",
		Wasted:      []WastedEntry{{Activity: "刷短视频", Minutes: 40}},
		WastedTotal: 40,
		Extras:      []string{"帮同事改稿"},
		FinalMemo:   "明天早点开工",
		Summary:     "完成度尚可的一天",
	}

	var r Reflection
	if err := r.SetMorning(morning); err != nil {
		t.Fatalf("序列化晨间数据失败: %v", err)
	}
	if err := r.SetNight(night); err != nil {
		t.Fatalf("序列化夜间数据失败: %v", err)
	}

	gotMorning := r.Morning()
	if gotMorning == nil || !reflect.DeepEqual(*gotMorning, morning) {
		t.Errorf("晨间数据往返不一致: %+v", gotMorning)
	}
	gotNight := r.Night()
	if gotNight == nil || !reflect.DeepEqual(*gotNight, night) {
		t.Errorf("夜间数据往返不一致: %+v", gotNight)
	}
}

func TestReflection_CompletionStates(t *testing.T) {
	var r Reflection
	if r.HasMorning() || r.HasNight() || r.IsComplete() {
		t.Error("空记录不应有任何完成标记")
	}

	if err := r.SetMorning(MorningData{Plan: "写第一章"}); err != nil {
		t.Fatal(err)
	}
	if !r.HasMorning() || r.HasNight() || r.IsComplete() {
		t.Error("仅晨间完成时不应视为完整")
	}

	if err := r.SetNight(NightData{Memo: "写了一半"}); err != nil {
		t.Fatal(err)
	}
	if !r.IsComplete() {
		t.Error("晨夜都有数据时应视为完整")
	}
}

func TestReflection_CorruptJSONReturnsNil(t *testing.T) {
	r := Reflection{
		MorningJSON: "{broken",
		NightJSON:   "not json at all",
	}
	if r.Morning() != nil {
		t.Error("损坏的晨间JSON应返回nil")
	}
	if r.Night() != nil {
		t.Error("损坏的夜间JSON应返回nil")
	}
	// 损坏不等于缺失：完成标记仍按是否有内容判断
	if !r.HasMorning() || !r.HasNight() {
		t.Error("有内容的字段仍应视为已写入")
	}
}
