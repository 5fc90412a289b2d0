package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartsplit/internal/adapters"
	"smartsplit/internal/amqp"
	"smartsplit/internal/sheets"
	gsheet "smartsplit/internal/sheets/google"
	"smartsplit/internal/sheets/memory"
	"smartsplit/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLBackend(storage.NewSQLiteRepository(config.SQLiteDBPath))
	case PostgresBackend:
		result, err = f.createSQLBackend(storage.NewPostgresRepository(config.DatabaseURL))
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if result.Exporter == nil {
		exporter, err := f.createExporter(ctx, config)
		if err != nil {
			result.Close()
			return nil, err
		}
		result.Exporter = exporter
	}

	result.AMQP = f.createAMQPClient(config)
	if result.AMQP != nil {
		storeCleanup := result.Cleanup
		client := result.AMQP
		result.Cleanup = func() error {
			var errs []error
			if err := client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
			if storeCleanup != nil {
				if err := storeCleanup(); err != nil {
					errs = append(errs, fmt.Errorf("storage: %w", err))
				}
			}
			return errors.Join(errs...)
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", result.AMQP != nil,
		"sheets_export", config.GoogleSpreadsheetID != "")

	return result, nil
}

func (f *DefaultFactory) createSQLBackend(repo *storage.Repository, err error) (*BackendResult, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	f.logger.Info("Initialized SQL backend", "dialect", repo.Dialect())

	return &BackendResult{
		Backend: repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	result := &BackendResult{
		Backend: store,
		Ready:   func(context.Context) error { return nil },
	}
	// Without a spreadsheet the memory store records its own exports.
	if config.GoogleSpreadsheetID == "" {
		result.Exporter = store
	}
	return result
}

func (f *DefaultFactory) createExporter(ctx context.Context, config Config) (sheets.AllocationExporter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Info("No spreadsheet configured, exports go to the log")
		return adapters.NewLogExporter(f.logger), nil
	}

	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleCredentialsJSON,
		CredentialsFile: config.GoogleCredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets exporter", "sheet", config.GoogleSheetName)
	return cli, nil
}

// createAMQPClient connects to the broker when one is configured. A failed
// connection is logged and the backend runs without messaging.
func (f *DefaultFactory) createAMQPClient(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
