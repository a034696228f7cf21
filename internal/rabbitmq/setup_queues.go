package rabbitmq

import "github.com/magabrotheeeer/clubhouse/internal/models"

const (
	// ExchangeName обменник событий профиля.
	ExchangeName = "clubhouse.events"
	// NotificationsQueue очередь, из которой читает notifier.
	NotificationsQueue = "clubhouse.notifications"
)

// QueueConfig привязка очереди к обменнику по ключу маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает привязки очереди уведомлений ко всем событиям профиля.
func GetNotificationQueues() []QueueConfig {
	events := []models.EventType{
		models.EventLevelUp,
		models.EventTrialGranted,
		models.EventSubscriptionExpired,
	}
	queues := make([]QueueConfig, 0, len(events))
	for _, e := range events {
		queues = append(queues, QueueConfig{QueueName: NotificationsQueue, RoutingKey: e.RoutingKey()})
	}
	return queues
}
