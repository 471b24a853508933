package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic carries OTP dispatch requests to the SMS gateway.
const DefaultTopic = "mohallahub.sms.otp"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes OTP messages keyed by phone so a number's messages
// stay ordered on one partition.
type KafkaSender struct {
	writer messageWriter
	topic  string
}

// NewKafkaSender builds a sender writing to topic on brokers.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaSender{writer: w, topic: topic}
}

func newKafkaSenderWithWriter(w messageWriter, topic string) *KafkaSender {
	return &KafkaSender{writer: w, topic: topic}
}

func (s *KafkaSender) SendOTP(ctx context.Context, msg OTPMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode otp message: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Phone),
		Value: b,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "purpose", Value: []byte(msg.Purpose)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish otp message to %s: %w", s.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSender) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
