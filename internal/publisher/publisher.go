package publisher

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/metrics"
	"github.com/nameforge/nameforge/pkg/model"
)

// Publisher announces settings changes on NATS so peer instances drop their
// derived state (client handle, validation cache).
type Publisher struct {
	logger  *zap.Logger
	nc      *nats.Conn
	subject string
	service string
}

// New creates a new Publisher.
func New(logger *zap.Logger, nc *nats.Conn, subject, service string) *Publisher {
	return &Publisher{logger: logger, nc: nc, subject: subject, service: service}
}

// PublishSettingsEvent serializes and publishes a settings-updated event.
func (p *Publisher) PublishSettingsEvent(event model.SettingsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.IncNATSPublish(p.subject, "error")
		return err
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{"settings_updated"},
			"correlation_id": []string{event.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		metrics.IncNATSPublish(p.subject, "error")
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", p.subject),
			zap.Error(err))
		return err
	}

	metrics.IncNATSPublish(p.subject, "ok")
	p.logger.Info("publisher.publish_success",
		zap.String("subject", p.subject),
		zap.String("correlation_id", event.CorrelationID.String()))
	return nil
}
