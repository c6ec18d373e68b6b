package worker

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/preferredrecruit/intake-gateway/internal/config"
	"github.com/preferredrecruit/intake-gateway/internal/kafka"
	"github.com/preferredrecruit/intake-gateway/internal/logger"
	"github.com/preferredrecruit/intake-gateway/internal/notifier"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consume notification events and deliver them to configured endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config") // inherited from root
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)

		consumer := kafka.NewConsumerFromConfig(kafka.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        cfg.Kafka.GroupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer func() { _ = consumer.Close() }()

		endpoints := make([]notifier.Endpoint, 0, len(cfg.Notifier.Endpoints))
		for _, ep := range cfg.Notifier.Endpoints {
			if !ep.Enabled {
				continue
			}
			endpoints = append(endpoints, notifier.NewHTTPEndpoint(
				ep.Name, ep.URL, ep.TimeoutMs, ep.Breaker.FailThreshold, ep.Breaker.OpenForMs,
			))
		}
		if len(endpoints) == 0 {
			return fmt.Errorf("no notification endpoints enabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := notifier.NewWorker(consumer, endpoints)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}
