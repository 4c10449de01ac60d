package kafka

// Config содержит конфигурацию для подключения к Kafka
type Config struct {
	// Brokers - список брокеров Kafka.
	//   - локальная разработка (go run): localhost:19092
	//   - запуск в Docker: kafka:9092
	// Пустой список выключает публикацию уведомлений корзины в Kafka.
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// Topic - топик для событий cart.notification.error
	Topic string `env:"KAFKA_TOPIC" envDefault:"cart.notifications"`
}

// Enabled сообщает, указаны ли брокеры
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}
