package kafka

import (
	"github.com/caarlos0/env/v10"
)

// LoadEnv заполняет cfg из KAFKA_BROKERS и KAFKA_TOPIC
// Для отдельных утилит; Cart Service читает эти переменные вместе с остальной конфигурацией
func LoadEnv(cfg *Config) error {
	return env.Parse(cfg)
}
