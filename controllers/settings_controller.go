package controllers

import (
	"net/http"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"CoMitGo/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsController 设置/引导/续期控制器
type SettingsController struct {
	gateway *services.AIGateway
}

func NewSettingsController(gateway *services.AIGateway) *SettingsController {
	return &SettingsController{gateway: gateway}
}

// GetSettings 读取用户设置
// 404即表示客户端应进入引导流程（数据损坏也按此处理）
func (sc *SettingsController) GetSettings(c *gin.Context) {
	uid := c.GetString("uid")

	settings, err := loadSettings(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// SaveSettings 保存设置，首次保存即完成引导并落定承诺开始日期
func (sc *SettingsController) SaveSettings(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()

	var settings models.UserSettings
	err := config.DB.Where("user_id = ?", uid).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = models.UserSettings{
			UserID:          uid,
			CommitmentStart: &now,
		}
	} else if err != nil {
		config.Logger.Errorw("读取设置失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取设置失败"})
		return
	}

	settings.CommitmentField = req.CommitmentField
	settings.LongTermGoal = req.LongTermGoal
	settings.QuarterGoal = req.QuarterGoal
	settings.QuarterDeadline = req.QuarterDeadline
	settings.ThreeWeekGoal = req.ThreeWeekGoal
	settings.ThreeWeekDeadline = req.ThreeWeekDeadline
	settings.DepositAmount = req.DepositAmount
	settings.DurationDays = req.DurationDays
	settings.PrototypeAcknowledged = req.PrototypeAcknowledged
	settings.TourSeen = req.TourSeen
	settings.LastModified = now

	if err := config.DB.Save(&settings).Error; err != nil {
		config.Logger.Errorw("保存设置失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存设置失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// DeleteSettings 显式重置设置，反思记录保留
func (sc *SettingsController) DeleteSettings(c *gin.Context) {
	uid := c.GetString("uid")

	if err := config.DB.Where("user_id = ?", uid).Delete(&models.UserSettings{}).Error; err != nil {
		config.Logger.Errorw("重置设置失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "重置设置失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "设置已重置"})
}

// RenewGoal 周期续期：AI根据上期表现生成下一个三周目标，开启新承诺窗口
func (sc *SettingsController) RenewGoal(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.RenewGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	settings, err := loadSettings(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置"})
		return
	}

	reflections, err := loadReflections(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}

	// 失败时NextGoal会原样返回当前目标，续期本身照常进行
	nextGoal := sc.gateway.NextGoal(c, settings.ThreeWeekGoal, req.Review, services.CumulativeScore(reflections))

	now := time.Now().UTC()
	deadline := now.AddDate(0, 0, settings.TotalCommitmentDays())

	settings.ThreeWeekGoal = nextGoal
	settings.ThreeWeekDeadline = &deadline
	settings.CommitmentStart = &now
	settings.LastModified = now

	if err := config.DB.Save(settings).Error; err != nil {
		config.Logger.Errorw("保存续期设置失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存续期设置失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings, "nextGoal": nextGoal})
}
