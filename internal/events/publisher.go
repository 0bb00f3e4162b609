package events

import (
	"encoding/json"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
)

// Subjects published by the import pipeline.
const (
	SubjectProductCreated  = "catalog.product.created"
	SubjectProductUpdated  = "catalog.product.updated"
	SubjectImportCompleted = "catalog.import.completed"
)

// ProductEvent notifies downstream services of a catalog write.
type ProductEvent struct {
	ProductID string    `json:"productId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportCompletedEvent carries the run summary.
type ImportCompletedEvent struct {
	Result    models.ImportResult `json:"result"`
	Summary   string              `json:"summary"`
	Timestamp time.Time           `json:"timestamp"`
}

// Publisher emits catalog events over NATS. Publishing is fire-and-forget:
// a failed publish is logged and never surfaces into the import pipeline.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS_URL. An empty NATS_URL disables events and
// returns (nil, nil); callers treat a nil publisher as a no-op.
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-import-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// ProductCreated publishes a product created event.
func (p *Publisher) ProductCreated(product *models.Product) {
	if p == nil {
		return
	}
	p.publish(SubjectProductCreated, ProductEvent{
		ProductID: product.ID.String(),
		SKU:       product.SKU,
		Name:      product.Name,
		Timestamp: time.Now().UTC(),
	})
}

// ProductUpdated publishes a product updated event.
func (p *Publisher) ProductUpdated(product *models.Product) {
	if p == nil {
		return
	}
	p.publish(SubjectProductUpdated, ProductEvent{
		ProductID: product.ID.String(),
		SKU:       product.SKU,
		Name:      product.Name,
		Timestamp: time.Now().UTC(),
	})
}

// ImportCompleted publishes the run summary event.
func (p *Publisher) ImportCompleted(result *models.ImportResult) {
	if p == nil {
		return
	}
	p.publish(SubjectImportCompleted, ImportCompletedEvent{
		Result:    *result,
		Summary:   result.Summary(),
		Timestamp: time.Now().UTC(),
	})
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to marshal event")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}
