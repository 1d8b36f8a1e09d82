package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"charity-admin/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

// ConnectionError is returned when the server cannot be reached within the connect timeout.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mongodb connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NewDatabase creates the process-wide MongoDB handle with lifecycle management.
// In production an unreachable server does not abort startup; the handle stays
// in degraded mode and a bounded reconnect loop keeps pinging.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(cfg.MongoMaxPoolSize).
		SetConnectTimeout(cfg.MongoConnectTimeout).
		SetServerSelectionTimeout(cfg.MongoConnectTimeout).
		SetSocketTimeout(cfg.MongoSocketTimeout)

	// Connect only validates options; no I/O happens until Ping.
	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	mongodb := &MongodbDB{
		Client:       client,
		DB:           client.Database(cfg.DBName),
		transactions: cfg.MongoTransactions,
		stop:         make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if !cfg.IsProduction() {
			_ = client.Disconnect(context.Background())
			return nil, &ConnectionError{Err: err}
		}
		log.Printf("MongoDB unreachable, serving in degraded mode: %v", err)
		go mongodb.reconnect(cfg.MongoReconnectAttempts, cfg.MongoConnectTimeout)
	} else {
		mongodb.setConnected(true)
		log.Println("Connected to MongoDB!")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			close(mongodb.stop)
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return mongodb, nil
}

func (m *MongodbDB) reconnect(attempts int, timeout time.Duration) {
	for i := 1; i <= attempts; i++ {
		select {
		case <-m.stop:
			return
		case <-time.After(time.Duration(i) * 5 * time.Second):
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := m.Client.Ping(ctx, readpref.Primary())
		cancel()
		if err == nil {
			m.setConnected(true)
			log.Printf("Connected to MongoDB after %d retries", i)
			return
		}
		log.Printf("MongoDB reconnect attempt %d/%d failed: %v", i, attempts, err)
	}
	log.Println("Giving up on MongoDB reconnects; database routes will keep answering 503")
}
