package faas

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"orderpipeline/internal/infrastructure/kafka"
)

// TriggerPublisher fires named serverless functions over the trigger topic.
// Triggers are fire-and-forget; a returned error means the trigger was never
// enqueued and the caller is expected to log and move on.
type TriggerPublisher interface {
	TriggerFunction(name string, payload map[string]any) error
	TriggerEmail(to, subject, body string) error
}

type triggerMessage struct {
	FunctionName string         `json:"functionName"`
	Payload      map[string]any `json:"payload"`
}

type faasTriggerPublisher struct {
	producer kafka.Producer
	topic    string
	logger   *zap.Logger
}

func NewTriggerPublisher(producer kafka.Producer, topic string, l *zap.Logger) TriggerPublisher {
	return &faasTriggerPublisher{producer: producer, topic: topic, logger: l}
}

func (p *faasTriggerPublisher) TriggerFunction(name string, payload map[string]any) error {
	value, err := json.Marshal(triggerMessage{FunctionName: name, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to serialize trigger for function %s: %w", name, err)
	}

	p.producer.Produce(p.topic, []byte(name), value)
	p.logger.Info("Published FaaS trigger", zap.String("function", name))
	return nil
}

func (p *faasTriggerPublisher) TriggerEmail(to, subject, body string) error {
	return p.TriggerFunction("email", map[string]any{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
}
