package cmd

import (
	"log/slog"

	"github.com/voltgrid/billnotify/internal/config"
	"github.com/voltgrid/billnotify/internal/notify"
	"github.com/voltgrid/billnotify/internal/processor"
	"github.com/voltgrid/billnotify/internal/transport"
)

// buildProcessor wires the transport client, notification provider,
// dispatcher and processor from configuration. publisher may be nil.
func buildProcessor(cfg *config.AppConfig, logg *slog.Logger, publisher processor.EventPublisher) *processor.Processor {
	client := transport.NewClient(cfg.APIKey, cfg.HTTPTimeout())

	var provider notify.Provider
	switch cfg.Provider {
	case "smtp":
		provider = notify.NewSMTPProvider(notify.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			Encryption: cfg.SMTPEncryption,
		})
	default:
		provider = notify.NewHTTPProvider(client, cfg.NotificationURL)
	}

	dispatcher := notify.NewDispatcher(provider, logg)

	return processor.New(processor.Config{
		Client:           client,
		Dispatcher:       dispatcher,
		PaymentURL:       cfg.PaymentURL,
		Logger:           logg,
		BestEffortNotify: cfg.BestEffortNotify,
		RateLimit:        cfg.RateLimit,
		Publisher:        publisher,
	})
}
