package controllers

import (
	"net/http"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SyncController 客户端本地数据的批量同步控制器
// 全记录覆盖、last-write-wins：只接受LastModified更新的写入
type SyncController struct{}

// SyncMemos 同步备忘录
func (sc *SyncController) SyncMemos(c *gin.Context) {
	uid := c.GetString("uid")

	var memos []models.SyncMemosRequest
	if err := c.ShouldBindJSON(&memos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	for _, req := range memos {
		req.ConvertToUTC()

		var existing models.Memo
		err := config.DB.Where("id = ? AND user_id = ?", req.ID, uid).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			memo := models.Memo{
				ID:           req.ID,
				UserID:       uid,
				Text:         req.Text,
				CreatedAt:    req.CreatedAt,
				Status:       req.Status,
				LastModified: req.LastModified,
			}
			if err := config.DB.Create(&memo).Error; err != nil {
				config.Logger.Errorw("创建备忘录失败", "error", err, "uid", uid)
			}
			continue
		}
		if err != nil {
			config.Logger.Errorw("查询备忘录失败", "error", err, "uid", uid)
			continue
		}
		// 旧于服务端的数据直接丢弃
		if !req.LastModified.After(existing.LastModified) {
			continue
		}
		if err := config.DB.Model(&existing).Updates(map[string]interface{}{
			"text":          req.Text,
			"status":        req.Status,
			"last_modified": req.LastModified,
		}).Error; err != nil {
			config.Logger.Errorw("更新备忘录失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "同步完成"})
}

// SyncSideProjects 同步副业项目
func (sc *SyncController) SyncSideProjects(c *gin.Context) {
	uid := c.GetString("uid")

	var projects []models.SyncSideProjectsRequest
	if err := c.ShouldBindJSON(&projects); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	for _, req := range projects {
		req.ConvertToUTC()

		var existing models.SideProject
		err := config.DB.Where("id = ? AND user_id = ?", req.ID, uid).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			project := models.SideProject{
				ID:           req.ID,
				UserID:       uid,
				Name:         req.Name,
				DueDate:      req.DueDate,
				IsCompleted:  req.IsCompleted,
				Status:       req.Status,
				LastModified: req.LastModified,
			}
			if err := config.DB.Create(&project).Error; err != nil {
				config.Logger.Errorw("创建副业项目失败", "error", err, "uid", uid)
			}
			continue
		}
		if err != nil {
			config.Logger.Errorw("查询副业项目失败", "error", err, "uid", uid)
			continue
		}
		if !req.LastModified.After(existing.LastModified) {
			continue
		}
		if err := config.DB.Model(&existing).Updates(map[string]interface{}{
			"name":          req.Name,
			"due_date":      req.DueDate,
			"is_completed":  req.IsCompleted,
			"status":        req.Status,
			"last_modified": req.LastModified,
		}).Error; err != nil {
			config.Logger.Errorw("更新副业项目失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "同步完成"})
}

// SyncTasks 同步每日任务（仪表盘离线勾选的回传）
func (sc *SyncController) SyncTasks(c *gin.Context) {
	uid := c.GetString("uid")

	var tasks []models.SyncTasksRequest
	if err := c.ShouldBindJSON(&tasks); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	for _, req := range tasks {
		req.ConvertToUTC()

		var existing models.DailyTask
		err := config.DB.Where("id = ? AND user_id = ?", req.ID, uid).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			task := models.DailyTask{
				ID:           req.ID,
				UserID:       uid,
				Date:         req.Date,
				Text:         req.Text,
				IsCompleted:  req.IsCompleted,
				Type:         req.Type,
				Priority:     req.Priority,
				Position:     req.Position,
				LastModified: req.LastModified,
			}
			if err := config.DB.Create(&task).Error; err != nil {
				config.Logger.Errorw("创建任务失败", "error", err, "uid", uid)
			}
			continue
		}
		if err != nil {
			config.Logger.Errorw("查询任务失败", "error", err, "uid", uid)
			continue
		}
		if !req.LastModified.After(existing.LastModified) {
			continue
		}
		if err := config.DB.Model(&existing).Updates(map[string]interface{}{
			"text":          req.Text,
			"is_completed":  req.IsCompleted,
			"priority":      req.Priority,
			"position":      req.Position,
			"last_modified": req.LastModified,
		}).Error; err != nil {
			config.Logger.Errorw("更新任务失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "同步完成"})
}

// GetUpdates 获取自上次同步以来的更新
func (sc *SyncController) GetUpdates(c *gin.Context) {
	uid := c.GetString("uid")

	// 获取上次同步时间
	lastSyncDateStr := c.Query("lastSyncDate")
	var lastSyncDate time.Time
	var err error

	if lastSyncDateStr != "" {
		lastSyncDate, err = time.Parse(time.RFC3339, lastSyncDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的时间格式"})
			return
		}
	} else {
		// 没有提供上次同步时间时取很久以前
		lastSyncDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var memos []models.Memo
	if err := config.DB.Where("user_id = ? AND last_modified > ? AND status = 0",
		uid, lastSyncDate).Find(&memos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取备忘录更新失败"})
		return
	}

	var projects []models.SideProject
	if err := config.DB.Where("user_id = ? AND last_modified > ? AND status = 0",
		uid, lastSyncDate).Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取副业项目更新失败"})
		return
	}

	var tasks []models.DailyTask
	if err := config.DB.Where("user_id = ? AND last_modified > ?",
		uid, lastSyncDate).Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取任务更新失败"})
		return
	}

	memoResponses := make([]models.MemoResponse, len(memos))
	for i, memo := range memos {
		memoResponses[i] = models.MemoResponse{
			ID:           memo.ID,
			Text:         memo.Text,
			CreatedAt:    memo.CreatedAt,
			LastModified: memo.LastModified,
		}
	}

	projectResponses := make([]models.SideProjectResponse, len(projects))
	for i, project := range projects {
		projectResponses[i] = models.SideProjectResponse{
			ID:           project.ID,
			Name:         project.Name,
			DueDate:      project.DueDate,
			IsCompleted:  project.IsCompleted,
			LastModified: project.LastModified,
		}
	}

	c.JSON(http.StatusOK, models.SyncUpdatesResponse{
		Memos:        memoResponses,
		SideProjects: projectResponses,
		Tasks:        tasks,
	})
}
