package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"lightning-cross/domain"
)

// MessageWriter is the part of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TradeMessage is the JSON value written for every trade
type TradeMessage struct {
	ID           string `json:"id"`
	Symbol       string `json:"symbol"`
	Seq          uint64 `json:"seq"`
	Price        string `json:"price"`
	Quantity     int64  `json:"quantity"`
	AskOrderID   uint64 `json:"askOrderId"`
	BidOrderID   uint64 `json:"bidOrderId"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
	ExecutedAt   int64  `json:"executedAt"` // Unix nanoseconds
}

// Publisher forwards trades from a feed subscription to a Kafka topic
type Publisher struct {
	writer MessageWriter
	symbol string
	scale  int32
	log    *zap.Logger
}

// NewKafkaWriter builds a synchronous writer that waits for all replicas
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewPublisher creates a publisher on top of writer
func NewPublisher(writer MessageWriter, symbol string, scale int32, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		writer: writer,
		symbol: symbol,
		scale:  scale,
		log:    logger,
	}
}

// Run publishes every trade received until trades is closed or ctx ends.
// Write failures are logged and the trade is skipped.
func (p *Publisher) Run(ctx context.Context, trades <-chan domain.Trade) {
	for {
		select {
		case trade, ok := <-trades:
			if !ok {
				return
			}
			if err := p.Publish(ctx, trade); err != nil {
				p.log.Error("kafka publish failed",
					zap.String("trade_id", trade.ID()),
					zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Publish writes one trade keyed by its id
func (p *Publisher) Publish(ctx context.Context, trade domain.Trade) error {
	msg, err := p.Encode(trade)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Encode renders a trade as a Kafka message
func (p *Publisher) Encode(trade domain.Trade) (kafka.Message, error) {
	value, err := json.Marshal(TradeMessage{
		ID:           trade.ID(),
		Symbol:       p.symbol,
		Seq:          trade.Seq,
		Price:        trade.Price.Format(p.scale),
		Quantity:     trade.Quantity,
		AskOrderID:   trade.AskOrderID,
		BidOrderID:   trade.BidOrderID,
		IsBuyerMaker: trade.IsBuyerMaker,
		ExecutedAt:   trade.ExecutedAt.UnixNano(),
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(trade.ID()),
		Value: value,
		Time:  trade.ExecutedAt,
	}, nil
}

// Close flushes and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
