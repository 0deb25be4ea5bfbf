package main

import (
	"fmt"

	"github.com/SafeMPC/custody-engine/internal/auth"
	"github.com/SafeMPC/custody-engine/internal/config"
)

// 生成一个本地调试用的会话令牌，密钥与签发者取自环境配置
func main() {
	cfg := config.DefaultServiceConfigFromEnv()

	manager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTDuration)

	token, err := manager.Generate("system-test")
	if err != nil {
		panic(err)
	}
	fmt.Println(token)
}
