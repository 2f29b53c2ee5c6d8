package main

import (
	"fmt"
	"os"

	"github.com/orgdesk/room-scheduler/internal/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		logger.Fatalf("Failed to generate secrets: %v", err)
	}

	// stdout carries only the env lines so the output can be appended to .env
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
	logger.Info("Secrets generated. Keep them out of version control.")
}
