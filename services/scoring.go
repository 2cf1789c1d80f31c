package services

import (
	"math"
	"time"

	"CoMitGo/models"
)

// 计分常量，均为面向用户的契约数字
const (
	NightBaseScore    = 10 // 完成夜间反思的基础分
	TaskScore         = 5  // 每个已完成任务加分
	ExtraScore        = 5  // 每件计划外成就加分
	WastedPenaltyUnit = 10 // 每浪费10分钟扣1分
	RecallPenalty     = 5  // 晨间目标回忆失败罚分
	MissedDayPenalty  = 50 // 成长曲线中缺勤一天的扣分
)

// 押金返还的阶梯节点：第4天解锁20%，之后线性爬升到周期结束的100%
const (
	refundUnlockStreak = 4
	refundUnlockRatio  = 0.2
)

// CumulativeScore 累计得分，对顺序不敏感
func CumulativeScore(reflections []models.Reflection) int {
	total := 0
	for _, r := range reflections {
		total += r.Score
	}
	return total
}

// Streak 连续打卡数：完成夜间反思的天数
func Streak(reflections []models.Reflection) int {
	count := 0
	for _, r := range reflections {
		if r.HasNight() {
			count++
		}
	}
	return count
}

// NightScore 夜间流程定稿时的当日得分
// score = 基础分 + 5×完成任务数 + 5×计划外成就数 − ⌊浪费分钟/10⌋ + 临时加减分
func NightScore(completedTasks, extras, wastedMinutes, pendingScore int) int {
	return NightBaseScore +
		TaskScore*completedTasks +
		ExtraScore*extras -
		wastedMinutes/WastedPenaltyUnit +
		pendingScore
}

// ComputeRefund 根据押金、承诺周期总天数和打卡数计算可返还金额与比例
// 节点：3天及以下为0；第4天解锁20%；之后线性爬升；达到周期天数返还100%
// 金额向下取整并钳制在[0, deposit]内
func ComputeRefund(deposit, totalDays, streak int) (int, float64) {
	if deposit <= 0 {
		return 0, 0
	}

	var ratio float64
	switch {
	case streak <= refundUnlockStreak-1:
		ratio = 0
	case totalDays > 0 && streak >= totalDays:
		ratio = 1
	case streak == refundUnlockStreak:
		ratio = refundUnlockRatio
	case totalDays > refundUnlockStreak:
		progress := float64(streak-refundUnlockStreak) / float64(totalDays-refundUnlockStreak)
		ratio = refundUnlockRatio + (1-refundUnlockRatio)*math.Min(1, progress)
	default:
		ratio = refundUnlockRatio
	}

	amount := int(math.Floor(float64(deposit) * ratio))
	if amount < 0 {
		amount = 0
	}
	if amount > deposit {
		amount = deposit
	}

	return amount, float64(amount) / float64(deposit) * 100
}

// GrowthSeries 成长曲线：从最早记录日走到今天，逐日累计得分，
// 没有完整反思的日子按缺勤扣分，用于可视化一致性衰减
func GrowthSeries(reflections []models.Reflection, today time.Time) []models.GrowthPoint {
	if len(reflections) == 0 {
		return nil
	}

	byDate := make(map[string]*models.Reflection, len(reflections))
	earliest := reflections[0].Date
	for i := range reflections {
		r := &reflections[i]
		byDate[r.Date] = r
		if r.Date < earliest {
			earliest = r.Date
		}
	}

	start, err := time.Parse(models.DateLayout, earliest)
	if err != nil {
		return nil
	}
	end := today.UTC().Truncate(24 * time.Hour)

	var series []models.GrowthPoint
	cumulative := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		if r, ok := byDate[key]; ok && r.IsComplete() {
			cumulative += r.Score
		} else {
			cumulative -= MissedDayPenalty
		}
		series = append(series, models.GrowthPoint{Date: key, Cumulative: cumulative})
	}
	return series
}

// CalendarMonth 月历投影：每天给出是否有记录、是否完整、是否在承诺窗口内
func CalendarMonth(reflections []models.Reflection, settings *models.UserSettings, year int, month time.Month) []models.CalendarDay {
	byDate := make(map[string]*models.Reflection, len(reflections))
	for i := range reflections {
		byDate[reflections[i].Date] = &reflections[i]
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var days []models.CalendarDay
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		day := models.CalendarDay{Date: key}
		if r, ok := byDate[key]; ok {
			day.HasRecord = true
			day.Completed = r.IsComplete()
		}
		if settings != nil {
			day.InWindow = settings.InCommitmentWindow(d)
		}
		days = append(days, day)
	}
	return days
}
