package controllers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"CoMitGo/config"
	"CoMitGo/models"
	"CoMitGo/services"
	"github.com/gin-gonic/gin"
)

// 每个分身会话在Redis中保留的对话轮数和时长
const (
	twinHistoryMaxLines = 20
	twinHistoryTTL      = 24 * time.Hour
)

// ChatController AI会话类接口控制器：分身、毒舌点评、愿景板、目标建议
type ChatController struct {
	gateway *services.AIGateway
}

func NewChatController(gateway *services.AIGateway) *ChatController {
	return &ChatController{gateway: gateway}
}

// appendTwinHistory 把一轮对话追加到历史并截断到最近的对话行
// 首轮历史为空时不引入空行
func appendTwinHistory(history, message, reply string) string {
	var lines []string
	if history != "" {
		lines = strings.Split(history, "\n")
	}
	lines = append(lines, "用户："+message, "分身："+reply)
	if len(lines) > twinHistoryMaxLines {
		lines = lines[len(lines)-twinHistoryMaxLines:]
	}
	return strings.Join(lines, "\n")
}

// TwinChat 与过去某一天的自己对话
// 只有晨间+夜间都完成的日期才能生成分身
func (cc *ChatController) TwinChat(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.TwinChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var reflection models.Reflection
	if err := config.DB.Where("user_id = ? AND date = ?", uid, req.Date).First(&reflection).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到当日记录"})
		return
	}
	if !reflection.IsComplete() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "当日记录不完整，无法生成分身"})
		return
	}

	var tasks []models.DailyTask
	if err := config.DB.Where("user_id = ? AND date = ?", uid, req.Date).
		Order("position asc").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取任务列表失败"})
		return
	}

	// 从Redis取对话历史，取不到就当新会话
	historyKey := fmt.Sprintf("chat:twin:%s:%s", uid, req.Date)
	history, err := config.RedisClient.Get(c, historyKey).Result()
	if err != nil {
		history = ""
	}

	reply := cc.gateway.TwinResponse(c, &reflection, tasks, history, req.Message)

	if err := config.RedisClient.Set(c, historyKey,
		appendTwinHistory(history, req.Message, reply), twinHistoryTTL).Err(); err != nil {
		config.Logger.Warnw("保存分身对话历史失败", "error", err, "uid", uid)
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// SpicyFeedback 根据最近的得分走势生成毒舌点评
func (cc *ChatController) SpicyFeedback(c *gin.Context) {
	uid := c.GetString("uid")

	var reflections []models.Reflection
	if err := config.DB.Where("user_id = ?", uid).
		Order("date desc").Limit(7).Find(&reflections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}
	if len(reflections) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "还没有任何记录，先完成一次反思"})
		return
	}

	// 按日期升序还原走势
	sort.Slice(reflections, func(i, j int) bool {
		return reflections[i].Date < reflections[j].Date
	})
	trend := make([]int, len(reflections))
	for i, r := range reflections {
		trend[i] = r.Score
	}

	c.JSON(http.StatusOK, gin.H{"feedback": cc.gateway.SpicyFeedback(c, trend)})
}

// VisionBoard 生成愿景板图片并存入设置
// 生成失败返回空URL，客户端据此跳过展示
func (cc *ChatController) VisionBoard(c *gin.Context) {
	uid := c.GetString("uid")

	settings, err := loadSettings(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到设置"})
		return
	}

	// 最近的反思内容作为生成素材
	var reflections []models.Reflection
	if err := config.DB.Where("user_id = ?", uid).
		Order("date desc").Limit(3).Find(&reflections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取反思记录失败"})
		return
	}
	var digest []string
	for _, r := range reflections {
		if m := r.Morning(); m != nil {
			digest = append(digest, m.Plan)
		}
	}

	imageURI := cc.gateway.VisionBoardImage(c, settings.LongTermGoal, strings.Join(digest, "; "))
	if imageURI != "" {
		settings.VisionBoardURL = imageURI
		settings.LastModified = time.Now().UTC()
		if err := config.DB.Save(settings).Error; err != nil {
			config.Logger.Warnw("保存愿景板失败", "error", err, "uid", uid)
		}
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURI})
}

// GoalSuggestions 根据承诺领域生成目标建议（引导流程用）
func (cc *ChatController) GoalSuggestions(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.GoalSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	config.Logger.Debugw("生成目标建议", "uid", uid, "field", req.Field)
	c.JSON(http.StatusOK, gin.H{"suggestions": cc.gateway.GoalSuggestions(c, req.Field)})
}
