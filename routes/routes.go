package routes

import (
	"CoMitGo/controllers"
	"CoMitGo/middleware"
	"CoMitGo/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, gateway *services.AIGateway) *controllers.FlowController {
	authController := controllers.AuthController{}
	flowController := controllers.NewFlowController(gateway)
	settingsController := controllers.NewSettingsController(gateway)
	chatController := controllers.NewChatController(gateway)
	dashboardController := controllers.DashboardController{}
	depositController := controllers.DepositController{}
	syncController := controllers.SyncController{}

	// 公开路由（无需认证）
	public := r.Group("/api/v1")
	{
		public.POST("/auth/device", authController.DeviceLogin)
	}

	// 需要认证的路由
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware())
	{
		// 设置与引导
		private.GET("/settings", settingsController.GetSettings)
		private.PUT("/settings", settingsController.SaveSettings)
		private.DELETE("/settings", settingsController.DeleteSettings)
		private.POST("/settings/renew", settingsController.RenewGoal)

		// 晨间/夜间流程
		private.POST("/flow/morning/start", flowController.StartMorning)
		private.POST("/flow/morning/event", flowController.MorningEvent)
		private.GET("/flow/morning", flowController.GetMorning)
		private.POST("/flow/night/start", flowController.StartNight)
		private.POST("/flow/night/event", flowController.NightEvent)
		private.GET("/flow/night", flowController.GetNight)

		// 仪表盘与只读投影
		private.GET("/dashboard", dashboardController.GetDashboard)
		private.GET("/calendar", dashboardController.GetCalendar)
		private.GET("/growth", dashboardController.GetGrowth)
		private.GET("/reflections", dashboardController.ListReflections)
		private.GET("/reflections/:date", dashboardController.GetReflection)
		private.PATCH("/tasks/:id/toggle", dashboardController.ToggleTask)

		// 押金
		private.GET("/deposit/refund", depositController.GetRefund)

		// AI会话类接口
		private.POST("/twin", chatController.TwinChat)
		private.POST("/feedback/spicy", chatController.SpicyFeedback)
		private.POST("/vision-board", chatController.VisionBoard)
		private.POST("/goal-suggestions", chatController.GoalSuggestions)

		// 同步
		private.POST("/sync/memos", syncController.SyncMemos)
		private.POST("/sync/side-projects", syncController.SyncSideProjects)
		private.POST("/sync/tasks", syncController.SyncTasks)
		private.GET("/sync/updates", syncController.GetUpdates)
	}

	// 内部路由组（仅限服务器内部调用）
	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	{
		internal.GET("/deposit/confirm", depositController.ConfirmDeposit)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	return flowController
}
