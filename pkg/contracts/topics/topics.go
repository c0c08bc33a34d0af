package topics

const (
	// Kafka
	Notifications = "auraflow_notifications"

	// Redis Pub/Sub
	NotificationsBroadcast = "auraflow_notifications_broadcast"

	// Chave do registro de sessão em andamento
	TimerState = "auraflow:timer_state"
)
