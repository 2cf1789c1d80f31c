package utils

import (
	"time"

	"github.com/google/uuid"
)

func GenerateID() string {
	return uuid.New().String()
}

// Today 返回UTC当天的日期键
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
