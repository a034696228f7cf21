package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
)

// maxInFlight сколько сообщений обрабатывается одновременно.
const maxInFlight = 10

// ErrDropMessage оборачивается обработчиком, если сообщение не имеет смысла обрабатывать
// повторно. Такое сообщение отклоняется без возврата в очередь.
var ErrDropMessage = errors.New("message dropped")

// ErrConsumerStopped брокер закрыл канал доставки, сообщения больше не поступают.
var ErrConsumerStopped = errors.New("consumer stopped: delivery channel closed")

// Consumer запущенное чтение очереди.
type Consumer struct {
	wg   sync.WaitGroup
	done chan struct{}
	err  error
}

// Done закрывается, когда чтение очереди прекратилось.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// Err после закрытия Done: nil при отмене контекста, ErrConsumerStopped если канал закрыл брокер.
func (c *Consumer) Err() error {
	<-c.done
	return c.err
}

// Wait ждёт остановки чтения и завершения всех начатых обработчиков.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// ConsumerMessage запускает чтение очереди queueName. Каждое сообщение передаётся handler;
// при ошибке сообщение возвращается в очередь, кроме ошибок ErrDropMessage.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func(context.Context, []byte) error) (*Consumer, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return Consume(ctx, log, delivery, handler), nil
}

// Consume обрабатывает сообщения из delivery до отмены ctx или закрытия канала.
func Consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery,
	handler func(context.Context, []byte) error) *Consumer {
	c := &Consumer{done: make(chan struct{})}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		c.err = c.consume(ctx, log, delivery, handler)
	}()
	return c
}

func (c *Consumer) consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery,
	handler func(context.Context, []byte) error) error {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return ErrConsumerStopped
			}
			sem <- struct{}{}
			c.wg.Add(1)
			go func(d amqp.Delivery) {
				defer func() {
					<-sem
					c.wg.Done()
				}()
				handleDelivery(ctx, log, d, handler)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

// Acknowledger часть amqp.Delivery для подтверждения сообщения.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler func(context.Context, []byte) error) {
	ack(log, d, handler(ctx, d.Body), d.RoutingKey)
}

// ack подтверждает сообщение или возвращает его в очередь, если обработка завершилась ошибкой.
func ack(log *slog.Logger, a Acknowledger, handleErr error, routingKey string) {
	if handleErr != nil {
		requeue := !errors.Is(handleErr, ErrDropMessage)
		log.Error("failed to handle message",
			slog.String("routing_key", routingKey), slog.Bool("requeue", requeue), sl.Err(handleErr))
		if err := a.Nack(false, requeue); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}
	if err := a.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}
