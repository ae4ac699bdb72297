package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// LogConfig 日志输出配置
type LogConfig struct {
	File    string `json:"file"`
	Level   string `json:"level"`
	Console bool   `json:"console"` // 同时输出到 stderr
}

// RedisConfig 事件镜像（可选），Addr 为空则不启用
type RedisConfig struct {
	Addr    string `json:"addr"`
	Channel string `json:"channel"`
}

// Config 服务端配置：默认值 → JSON 文件 → 命令行覆盖
type Config struct {
	Addr            string      `json:"addr"`
	RoomName        string      `json:"room"`
	EmitRateMs      int         `json:"emitRateMs"`
	Step            float64     `json:"step"`
	SpawnX          float64     `json:"spawnX"`
	SpawnY          float64     `json:"spawnY"`
	EchoErrors      bool        `json:"echoErrors"`
	StaticDir       string      `json:"staticDir"`
	AllowedOrigins  []string    `json:"allowedOrigins"`
	MaxMessageBytes int64       `json:"maxMessageBytes"` // 0 表示不限制
	Log             LogConfig   `json:"log"`
	Redis           RedisConfig `json:"redis"`
}

// DefaultConfig 返回内置默认配置（本地回环 3512 端口，10Hz 广播）
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:3512",
		RoomName:       "game-room",
		EmitRateMs:     100,
		Step:           2,
		SpawnX:         200,
		SpawnY:         150,
		AllowedOrigins: []string{"*"},
		Log: LogConfig{
			File:  "app.log",
			Level: "debug",
		},
		Redis: RedisConfig{
			Channel: "game-room:events",
		},
	}
}

// LoadConfig 在默认配置之上叠加 JSON 文件；path 为空时读取 CONFIG_PATH 环境变量，
// 两者都为空则直接使用默认值。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate 检查会导致世界无法推进的配置
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.RoomName == "" {
		errs = append(errs, errors.New("room must not be empty"))
	}
	if c.EmitRateMs <= 0 {
		errs = append(errs, fmt.Errorf("emitRateMs must be positive, got %d", c.EmitRateMs))
	}
	if c.Step <= 0 {
		errs = append(errs, fmt.Errorf("step must be positive, got %v", c.Step))
	}
	if c.MaxMessageBytes < 0 {
		errs = append(errs, fmt.Errorf("maxMessageBytes must not be negative, got %d", c.MaxMessageBytes))
	}
	return errors.Join(errs...)
}

// EmitRate 广播周期
func (c Config) EmitRate() time.Duration {
	return time.Duration(c.EmitRateMs) * time.Millisecond
}
