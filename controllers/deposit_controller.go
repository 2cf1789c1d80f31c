package controllers

import (
	"net/http"
	"strconv"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"CoMitGo/services"
	"github.com/gin-gonic/gin"
)

// DepositController 押金控制器
type DepositController struct{}

// GetRefund 查询当前可返还的押金金额与比例
func (dc *DepositController) GetRefund(c *gin.Context) {
	uid := c.GetString("uid")

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

	streak := services.Streak(reflections)
	amount, pct := services.ComputeRefund(settings.DepositAmount, settings.TotalCommitmentDays(), streak)

	c.JSON(http.StatusOK, gin.H{
		"deposit":   settings.DepositAmount,
		"streak":    streak,
		"refund":    models.RefundInfo{Amount: amount, Percentage: pct},
		"totalDays": settings.TotalCommitmentDays(),
	})
}

// ConfirmDeposit 内部接口：支付回调确认押金到账后写入设置
func (dc *DepositController) ConfirmDeposit(c *gin.Context) {
	// 记录内部接口调用
	config.Logger.Infow("内部接口调用：确认押金",
		"sourceIP", c.ClientIP(),
		"userAgent", c.Request.UserAgent(),
	)

	uid := c.Query("uid")
	amountStr := c.Query("amount")

	amount, err := strconv.Atoi(amountStr)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的押金金额"})
		return
	}

	var settings models.UserSettings
	if err := config.DB.Where("user_id = ?", uid).First(&settings).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置"})
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&settings).Updates(map[string]interface{}{
		"deposit_amount": amount,
		"last_modified":  time.Now().UTC(),
	}).Error; err != nil {
		tx.Rollback()
		config.Logger.Errorw("确认押金失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "确认押金失败"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "确认押金失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "押金确认成功",
		"deposit": amount,
	})
}
