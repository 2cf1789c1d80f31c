package controllers

import (
	"net/http"
	"strconv"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"CoMitGo/services"
	"CoMitGo/utils"
	"github.com/gin-gonic/gin"
)

// DashboardController 仪表盘与只读聚合视图控制器
type DashboardController struct{}

func loadReflections(uid string) ([]models.Reflection, error) {
	var reflections []models.Reflection
	err := config.DB.Where("user_id = ?", uid).Find(&reflections).Error
	return reflections, err
}

// GetDashboard 仪表盘：累计得分、打卡数、押金返还与当日状态
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	uid := c.GetString("uid")

	reflections, err := loadReflections(uid)
	if err != nil {
		config.Logger.Errorw("获取反思记录失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}

	streak := services.Streak(reflections)

	refund := models.RefundInfo{}
	if settings, err := loadSettings(uid); err == nil {
		amount, pct := services.ComputeRefund(settings.DepositAmount, settings.TotalCommitmentDays(), streak)
		refund = models.RefundInfo{Amount: amount, Percentage: pct}
	}

	today := utils.Today()
	todayStatus := models.TodayStatus{Date: today, Tasks: []models.DailyTask{}}
	for _, r := range reflections {
		if r.Date == today {
			todayStatus.MorningDone = r.HasMorning()
			todayStatus.NightDone = r.HasNight()
		}
	}
	if err := config.DB.Where("user_id = ? AND date = ?", uid, today).
		Order("position asc").Find(&todayStatus.Tasks).Error; err != nil {
		config.Logger.Warnw("获取当日任务失败", "error", err, "uid", uid)
	}

	c.JSON(http.StatusOK, models.DashboardResponse{
		CumulativeScore: services.CumulativeScore(reflections),
		Streak:          streak,
		Refund:          refund,
		Today:           todayStatus,
	})
}

// GetCalendar 月历投影
func (dc *DashboardController) GetCalendar(c *gin.Context) {
	uid := c.GetString("uid")

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的年份"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的月份"})
		return
	}

	reflections, err := loadReflections(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}

	settings, _ := loadSettings(uid) // 无设置时只是没有承诺窗口高亮

	c.JSON(http.StatusOK, gin.H{
		"days": services.CalendarMonth(reflections, settings, year, time.Month(month)),
	})
}

// GetGrowth 成长曲线
func (dc *DashboardController) GetGrowth(c *gin.Context) {
	uid := c.GetString("uid")

	reflections, err := loadReflections(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}

	series := services.GrowthSeries(reflections, time.Now())
	if series == nil {
		series = []models.GrowthPoint{}
	}

	c.JSON(http.StatusOK, gin.H{"series": series})
}

// ListReflections 反思记录列表
func (dc *DashboardController) ListReflections(c *gin.Context) {
	uid := c.GetString("uid")

	reflections, err := loadReflections(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}

	responses := make([]models.ReflectionResponse, len(reflections))
	for i, r := range reflections {
		responses[i] = models.ReflectionResponse{
			Date:         r.Date,
			Morning:      r.Morning(),
			Night:        r.Night(),
			Score:        r.Score,
			PendingScore: r.PendingScore,
			Complete:     r.IsComplete(),
			LastModified: r.LastModified,
		}
	}

	c.JSON(http.StatusOK, gin.H{"reflections": responses})
}

// GetReflection 单日反思详情，含任务列表
func (dc *DashboardController) GetReflection(c *gin.Context) {
	uid := c.GetString("uid")
	date := c.Param("date")

	if _, err := time.Parse(models.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	var reflection models.Reflection
	if err := config.DB.Where("user_id = ? AND date = ?", uid, date).First(&reflection).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到当日记录"})
		return
	}

	var tasks []models.DailyTask
	if err := config.DB.Where("user_id = ? AND date = ?", uid, date).
		Order("position asc").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取任务列表失败"})
		return
	}

	c.JSON(http.StatusOK, models.ReflectionResponse{
		Date:         reflection.Date,
		Morning:      reflection.Morning(),
		Night:        reflection.Night(),
		Tasks:        tasks,
		Score:        reflection.Score,
		PendingScore: reflection.PendingScore,
		Complete:     reflection.IsComplete(),
		LastModified: reflection.LastModified,
	})
}

// ToggleTask 在仪表盘上切换任务完成状态
func (dc *DashboardController) ToggleTask(c *gin.Context) {
	uid := c.GetString("uid")
	taskID := c.Param("id")

	var task models.DailyTask
	if err := config.DB.Where("id = ? AND user_id = ?", taskID, uid).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	if err := config.DB.Model(&task).Updates(map[string]interface{}{
		"is_completed":  !task.IsCompleted,
		"last_modified": time.Now().UTC(),
	}).Error; err != nil {
		config.Logger.Errorw("切换任务状态失败", "error", err, "taskID", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "切换任务状态失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": task.ID, "isCompleted": !task.IsCompleted})
}
