package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Broadcaster fans lifecycle and bot events out to a RabbitMQ topic
// exchange. Live roster churn and notification delivery ride this channel,
// which is why the call projection never carries them itself.
type Broadcaster struct {
	conn     *amqp091.Connection
	exchange string
}

var Bc *Broadcaster

func SetupBroadcaster() error {
	url := viper.GetString("broadcaster.url")
	if len(url) == 0 {
		log.Info().Msg("No broadcaster configured, realtime events will stay local...")
		return nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return err
	}

	exchange := viper.GetString("broadcaster.exchange")
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return err
	}

	Bc = &Broadcaster{conn: conn, exchange: exchange}
	return nil
}

func (v *Broadcaster) Publish(ctx context.Context, key string, payload any) error {
	ch, err := v.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx, v.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Broadcast publishes without blocking the caller's path on broker trouble.
func Broadcast(key string, payload any) {
	if Bc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Bc.Publish(ctx, key, payload); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("An error occurred when broadcasting event...")
	}
}
