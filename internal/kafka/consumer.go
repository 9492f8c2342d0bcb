package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// Refresher runs a full stock data update
type Refresher interface {
	UpdateStockData(ctx context.Context) (*models.UpdateReport, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer triggers a data refresh for every REFRESH_REQUESTED event
type Consumer struct {
	reader    messageReader
	refresher Refresher
	log       logrus.FieldLogger
}

// NewConsumer creates a new Kafka consumer for refresh requests
func NewConsumer(brokers []string, topic, groupID string, refresher Refresher, log logrus.FieldLogger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:    reader,
		refresher: refresher,
		log:       log,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.log.WithField("topic", c.reader.Config().Topic).Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.log.WithError(err).Error("Error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.WithError(err).Error("Error processing message")
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.log.WithFields(logrus.Fields{
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"key":       string(msg.Key),
	}).Debug("Received message")

	var req models.RefreshRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal refresh request: %w", err)
	}

	if req.EventType != models.EventRefreshRequested {
		c.log.WithField("event_type", req.EventType).Debug("Ignoring event type")
		return nil
	}

	report, err := c.refresher.UpdateStockData(ctx)
	if err != nil {
		return fmt.Errorf("refresh requested by %q failed: %w", req.RequestedBy, err)
	}

	c.log.WithFields(logrus.Fields{
		"requested_by": req.RequestedBy,
		"inserted":     report.Inserted,
		"updated":      report.Updated,
	}).Info("Refresh completed")

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
