package constant

import (
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	RedisBusinessKey    = "lineup:businesses"
	RedisDedupKeyPrefix = "lineup:notified:"
	RedisDedupTTL       = 24 * time.Hour

	TopicSmsAccepted        = "sms.accepted"
	TopicNotificationStatus = "queue.notification.status"

	KafkaProducerAcks = kafka.RequireAll
	KafkaWriteTimeout = 5 * time.Second

	HistoryLimit    = 100
	DBTxTimeout     = 2 * time.Second // keep transactions short
	ProviderTimeout = 10 * time.Second

	BusinessIDKey = "business_id"
	EntryIDKey    = "id"
)
