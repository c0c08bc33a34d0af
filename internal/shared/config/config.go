package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	ctopics "github.com/radieske/auraflow/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução
// Inclui store, backends do timer, tópicos, portas e regras de aposta
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string

	StoreURL string // formato dburl, ex: "sqlite3:auraflow.db" ou "postgres://..."

	// Registro da sessão em andamento: "file" ou "redis"
	TimerStateBackend string
	TimerStatePath    string
	TimerStateKey     string

	RedisAddr          string // vazio desliga Redis
	RedisPubSubChannel string

	KafkaBrokers            string // "a:9092,b:9092"; vazio desliga Kafka
	TopicNotifications      string
	NotificationsConsumerID string

	HTTPPort    string
	MetricsPort string

	// Regras de aposta
	DefaultBet int64
	MinBet     int64
	MaxBet     int64

	StartingBalance int64
	GracePeriod     time.Duration
}

// Load carrega o .env (se existir) e as variáveis de ambiente com defaults
func Load() Config {
	// .env é opcional; em produção as variáveis vêm do ambiente
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: getEnv("SERVICE_NAME", "auraflow"),

		StoreURL: getEnv("STORE_URL", "sqlite3:auraflow.db"),

		TimerStateBackend: getEnv("TIMER_STATE_BACKEND", "file"),
		TimerStatePath:    getEnv("TIMER_STATE_PATH", "auraflow_timer_state.json"),
		TimerStateKey:     getEnv("REDIS_TIMER_KEY", ctopics.TimerState),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPubSubChannel: getEnv("REDIS_PUBSUB_CHANNEL", ctopics.NotificationsBroadcast),

		KafkaBrokers:            getEnv("KAFKA_BROKERS", ""),
		TopicNotifications:      getEnv("KAFKA_TOPIC_NOTIFICATIONS", ctopics.Notifications),
		NotificationsConsumerID: getEnv("KAFKA_CONSUMER_GROUP", "auraflow-tail"),

		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9095"),

		DefaultBet: getEnvInt("DEFAULT_BET", 40),
		MinBet:     getEnvInt("MIN_BET", 10),
		MaxBet:     getEnvInt("MAX_BET", 1000),

		StartingBalance: getEnvInt("STARTING_BALANCE", 100),
		GracePeriod:     getEnvDuration("GRACE_PERIOD", 5*time.Minute),
	}
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
