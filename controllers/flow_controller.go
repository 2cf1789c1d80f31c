package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"CoMitGo/services"
	"CoMitGo/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FlowController 晨间/夜间流程控制器
type FlowController struct {
	morning *services.MorningFlow
	night   *services.NightFlow
	gateway *services.AIGateway
	wg      sync.WaitGroup
}

func NewFlowController(gateway *services.AIGateway) *FlowController {
	return &FlowController{
		morning: services.NewMorningFlow(gateway),
		night:   services.NewNightFlow(gateway),
		gateway: gateway,
	}
}

// loadSettings 读取用户设置，不存在即视为尚未完成引导
func loadSettings(uid string) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := config.DB.Where("user_id = ?", uid).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func resolveDate(date string) (string, bool) {
	if date == "" {
		return utils.Today(), true
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", false
	}
	return date, true
}

// StartMorning 开始晨间流程，已有会话时恢复
func (fc *FlowController) StartMorning(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.FlowStartRequest
	_ = c.ShouldBindJSON(&req) // 允许空请求体，默认当天

	date, ok := resolveDate(req.Date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	if _, err := loadSettings(uid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置，请先完成引导"})
		return
	}

	// 当天已完成晨间计划就不再进入
	var reflection models.Reflection
	if err := config.DB.Where("user_id = ? AND date = ?", uid, date).First(&reflection).Error; err == nil {
		if reflection.HasMorning() {
			c.JSON(http.StatusConflict, gin.H{"error": "今天的晨间计划已完成"})
			return
		}
	}

	// 恢复未完成的会话
	session, err := services.LoadMorningSession(c, uid, date)
	if err != nil || session == nil {
		session = fc.morning.Start(uid, date)
		if err := services.SaveMorningSession(c, session); err != nil {
			config.Logger.Warnw("保存晨间会话失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "done": false})
}

// MorningEvent 处理晨间流程事件，终态时定稿入库
func (fc *FlowController) MorningEvent(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.FlowEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	date := c.Query("date")
	date, ok := resolveDate(date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	session, err := services.LoadMorningSession(c, uid, date)
	if err != nil || session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "晨间流程尚未开始"})
		return
	}

	settings, err := loadSettings(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置，请先完成引导"})
		return
	}

	reply, err := fc.morning.Handle(c, session, settings, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := session.Step == services.MorningStepDone
	if done {
		if err := fc.finalizeMorning(uid, session); err != nil {
			config.Logger.Errorw("晨间流程定稿失败", "error", err, "uid", uid, "date", date)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "保存晨间计划失败"})
			return
		}
		services.DeleteMorningSession(c, uid, date)
	} else {
		if err := services.SaveMorningSession(c, session); err != nil {
			config.Logger.Warnw("保存晨间会话失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply, "session": session, "done": done})
}

// GetMorning 查询晨间流程当前状态
func (fc *FlowController) GetMorning(c *gin.Context) {
	uid := c.GetString("uid")

	date, ok := resolveDate(c.Query("date"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	session, err := services.LoadMorningSession(c, uid, date)
	if err != nil || session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "晨间流程尚未开始"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "done": false})
}

// finalizeMorning 晨间定稿：创建当日反思记录并落定任务列表
func (fc *FlowController) finalizeMorning(uid string, session *services.MorningSession) error {
	now := time.Now().UTC()

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var reflection models.Reflection
	err := tx.Where("user_id = ? AND date = ?", uid, session.Date).First(&reflection).Error
	if err == gorm.ErrRecordNotFound {
		reflection = models.Reflection{
			ID:     utils.GenerateID(),
			UserID: uid,
			Date:   session.Date,
		}
	} else if err != nil {
		tx.Rollback()
		return err
	}

	if err := reflection.SetMorning(session.MorningData()); err != nil {
		tx.Rollback()
		return err
	}
	reflection.PendingScore = session.Penalty
	reflection.LastModified = now

	if err := tx.Save(&reflection).Error; err != nil {
		tx.Rollback()
		return err
	}

	for i := range session.Tasks {
		session.Tasks[i].LastModified = now
		if err := tx.Create(&session.Tasks[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// StartNight 开始夜间流程，前提是当天晨间计划已完成
func (fc *FlowController) StartNight(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.FlowStartRequest
	_ = c.ShouldBindJSON(&req)

	date, ok := resolveDate(req.Date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	if _, err := loadSettings(uid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置，请先完成引导"})
		return
	}

	var reflection models.Reflection
	if err := config.DB.Where("user_id = ? AND date = ?", uid, date).First(&reflection).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请先完成晨间计划"})
		return
	}
	if !reflection.HasMorning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请先完成晨间计划"})
		return
	}
	if reflection.HasNight() {
		c.JSON(http.StatusConflict, gin.H{"error": "今天的夜间反思已完成"})
		return
	}

	session, err := services.LoadNightSession(c, uid, date)
	if err != nil || session == nil {
		var tasks []models.DailyTask
		if err := config.DB.Where("user_id = ? AND date = ?", uid, date).
			Order("position asc").Find(&tasks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "获取任务列表失败"})
			return
		}

		session = fc.night.Start(uid, date, tasks, reflection.PendingScore)
		if err := services.SaveNightSession(c, session); err != nil {
			config.Logger.Warnw("保存夜间会话失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "done": false})
}

// NightEvent 处理夜间流程事件，终态时计分定稿
func (fc *FlowController) NightEvent(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.FlowEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	date, ok := resolveDate(c.Query("date"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	session, err := services.LoadNightSession(c, uid, date)
	if err != nil || session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "夜间流程尚未开始"})
		return
	}

	settings, err := loadSettings(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置，请先完成引导"})
		return
	}

	reply, err := fc.night.Handle(c, session, settings, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := session.Step == services.NightStepDone
	if done {
		if err := fc.finalizeNight(uid, session); err != nil {
			config.Logger.Errorw("夜间流程定稿失败", "error", err, "uid", uid, "date", date)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "保存夜间反思失败"})
			return
		}
		services.DeleteNightSession(c, uid, date)
	} else {
		if err := services.SaveNightSession(c, session); err != nil {
			config.Logger.Warnw("保存夜间会话失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply, "session": session, "done": done})
}

// GetNight 查询夜间流程当前状态
func (fc *FlowController) GetNight(c *gin.Context) {
	uid := c.GetString("uid")

	date, ok := resolveDate(c.Query("date"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	session, err := services.LoadNightSession(c, uid, date)
	if err != nil || session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "夜间流程尚未开始"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "done": false})
}

// finalizeNight 夜间定稿：计分、清零临时加减分、回写任务完成状态
// AI总结在后台补写，不阻塞定稿
func (fc *FlowController) finalizeNight(uid string, session *services.NightSession) error {
	now := time.Now().UTC()

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var reflection models.Reflection
	if err := tx.Where("user_id = ? AND date = ?", uid, session.Date).First(&reflection).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := reflection.SetNight(session.NightData()); err != nil {
		tx.Rollback()
		return err
	}
	reflection.Score = session.ComputeScore()
	reflection.PendingScore = 0
	reflection.LastModified = now

	if err := tx.Save(&reflection).Error; err != nil {
		tx.Rollback()
		return err
	}

	// 回写任务完成状态
	for _, task := range session.Tasks {
		if err := tx.Model(&models.DailyTask{}).Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"is_completed":  task.IsCompleted,
				"last_modified": now,
			}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	// 后台生成AI总结并补写，失败只影响总结文案
	fc.wg.Add(1)
	go func(reflectionID string, tasks []models.DailyTask, night models.NightData) {
		defer fc.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		night.Summary = fc.gateway.NightSummary(ctx, tasks, night)

		var r models.Reflection
		if err := config.DB.Where("id = ?", reflectionID).First(&r).Error; err != nil {
			config.Logger.Warnw("补写夜间总结失败", "error", err, "reflectionID", reflectionID)
			return
		}
		if err := r.SetNight(night); err != nil {
			return
		}
		if err := config.DB.Model(&r).Update("night_json", r.NightJSON).Error; err != nil {
			config.Logger.Warnw("补写夜间总结失败", "error", err, "reflectionID", reflectionID)
		}
	}(reflection.ID, session.Tasks, session.NightData())

	return nil
}

// Wait 等待后台任务完成，用于优雅关闭
func (fc *FlowController) Wait() {
	fc.wg.Wait()
}
