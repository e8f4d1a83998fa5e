package notify

import (
	"context"

	"brickDelivery/internal/logger"
)

// LogDispatcher writes notifications to the service log only.
type LogDispatcher struct {
	log logger.Logger
}

func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(ctx context.Context, templateID string, vars map[string]any) error {
	text, err := Render(templateID, vars)
	if err != nil {
		return err
	}
	d.log.Info("notification", "template", templateID, "text", text)
	return nil
}
