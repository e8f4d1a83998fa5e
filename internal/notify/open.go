package notify

import (
	"fmt"
	"strings"
	"time"

	"brickDelivery/internal/logger"
)

// Options selects and configures the notification backend.
type Options struct {
	Backend        string // log | rabbitmq | kafka | telegram
	RabbitURL      string
	RabbitExchange string
	KafkaBrokers   []string
	KafkaTopic     string
	TelegramToken  string
	TelegramChatID int64
	Timeout        time.Duration
}

// Open builds the configured dispatcher. The returned close func releases
// broker connections and is never nil.
func Open(opts Options, log logger.Logger) (Dispatcher, func() error, error) {
	noop := func() error { return nil }
	var (
		d       Dispatcher
		closeFn = noop
	)
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "log":
		d = NewLogDispatcher(log)
	case "rabbitmq":
		r, err := DialRabbit(opts.RabbitURL, opts.RabbitExchange)
		if err != nil {
			return nil, noop, err
		}
		d, closeFn = r, r.Close
	case "kafka":
		k, err := DialKafka(opts.KafkaBrokers, opts.KafkaTopic)
		if err != nil {
			return nil, noop, err
		}
		d, closeFn = k, k.Close
	case "telegram":
		t, err := DialTelegram(opts.TelegramToken, opts.TelegramChatID)
		if err != nil {
			return nil, noop, err
		}
		d = t
	default:
		return nil, noop, fmt.Errorf("unknown notify backend %q", opts.Backend)
	}
	return WithTimeout(d, opts.Timeout), closeFn, nil
}
