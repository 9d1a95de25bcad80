// Package backend builds the outbound adapters selected by configuration:
// the ledger exporter used by the worker and the entry publisher used by the
// API.
package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
)

// CleanupFunc releases what a constructor opened.
type CleanupFunc func() error

func noCleanup() error { return nil }

// ExporterType names a ledger exporter backend.
type ExporterType string

const (
	MemoryExporter ExporterType = config.ExporterMemory
	SheetsExporter ExporterType = config.ExporterSheets
)

// IsValid returns true for the known exporter types.
func (t ExporterType) IsValid() bool {
	switch t {
	case MemoryExporter, SheetsExporter:
		return true
	default:
		return false
	}
}

// NewExporter returns the exporter named by cfg.Exporter.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.LedgerExporter, error) {
	t := ExporterType(cfg.Exporter)
	switch t {
	case SheetsExporter:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		}, logger.WithComponent(log.ComponentSheets))
		if err != nil {
			return nil, fmt.Errorf("initialize google sheets exporter: %w", err)
		}
		return cli, nil
	case MemoryExporter:
		logger.Info("Using in-memory exporter")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("invalid exporter type: %s", t)
	}
}

// NewAMQPClient connects to the broker when AMQP is configured. With AMQP
// disabled it returns a nil client and a no-op cleanup.
func NewAMQPClient(cfg *config.Config, logger *log.Logger) (*amqp.Client, CleanupFunc, error) {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled")
		return nil, noCleanup, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		return nil, nil, fmt.Errorf("initialize amqp client: %w", err)
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client.Close, nil
}

// PublisherOption wires client into services. A nil client leaves the
// services without a publisher, so committed entries are only picked up by
// the worker sweep.
func PublisherOption(client *amqp.Client) services.Option {
	if client == nil {
		return services.WithPublisher(nil)
	}
	return services.WithPublisher(client)
}
