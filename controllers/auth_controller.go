package controllers

import (
	"net/http"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"CoMitGo/utils"
	"github.com/gin-gonic/gin"
)

// AuthController 认证控制器
type AuthController struct{}

// DeviceLogin 设备登录：按设备ID查找或创建用户并签发JWT
// 单用户个人应用，不接第三方身份
func (ac *AuthController) DeviceLogin(c *gin.Context) {
	var req models.DeviceLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 查找或创建用户
	var user models.User
	result := config.DB.Where("device_id = ?", req.DeviceID).First(&user)
	if result.Error != nil {
		user = models.User{
			ID:        utils.GenerateID(),
			DeviceID:  req.DeviceID,
			Username:  req.Username,
			CreatedAt: time.Now(),
		}
		if err := config.DB.Create(&user).Error; err != nil {
			config.Logger.Errorw("用户创建失败",
				"error", err,
				"deviceID", req.DeviceID,
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "用户创建失败"})
			return
		}
	}

	// 更新最近登录时间
	now := time.Now()
	if err := config.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		config.Logger.Warnw("更新登录时间失败", "error", err, "uid", user.ID)
	}

	// 签发JWT
	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		config.Logger.Errorw("令牌生成失败", "error", err, "uid", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "令牌生成失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.GetDisplayName(),
		},
	})
}
