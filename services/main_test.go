package services

import (
	"os"
	"testing"

	"CoMitGo/config"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// 测试中不落盘日志
	config.Logger = zap.NewNop().Sugar()
	os.Exit(m.Run())
}
