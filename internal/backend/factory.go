package backend

import (
	"context"
	"fmt"
	"log/slog"

	"wallet/internal/amqp"
	applog "wallet/internal/log"
	"wallet/internal/services"
	"wallet/internal/storage"
	"wallet/internal/storage/jsonfile"
	"wallet/internal/storage/memory"
	"wallet/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
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

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	svc := services.NewCardService(store, f.createPublisher(config))
	return &BackendResult{
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case JSONBackend:
		f.logger.Info("Initialized JSON file backend",
			applog.FieldBackend, config.Type.String(),
			"path", config.CardsFile)
		return jsonfile.New(config.CardsFile), nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend",
			applog.FieldBackend, config.Type.String(),
			"db_path", config.SQLiteDBPath)
		return repo, nil

	case MemoryBackend:
		var store *memory.Store
		if config.CardsFile != "" {
			store = memory.NewSeeded(ctx, jsonfile.New(config.CardsFile))
		} else {
			store = memory.New(nil)
		}
		f.logger.Info("Initialized memory backend",
			applog.FieldBackend, config.Type.String(),
			"seed", config.CardsFile)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher returns nil when events are disabled or the broker is
// unreachable; the service then runs without change events.
func (f *DefaultFactory) createPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events",
			applog.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"routing_key", config.AMQPRoutingKey)
	return client
}
