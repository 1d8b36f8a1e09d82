package database

import (
	"context"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs fn so that all writes made with the passed context commit together.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MongodbDB struct {
	Client *mongo.Client
	DB     *mongo.Database

	connected    atomic.Bool
	transactions bool
	stop         chan struct{}

	mu        sync.Mutex
	onConnect []func()
}

func (m *MongodbDB) Connected() bool {
	return m.connected.Load()
}

// OnConnect runs fn in its own goroutine once the server is reachable,
// immediately if it already is.
func (m *MongodbDB) OnConnect(fn func()) {
	m.mu.Lock()
	if !m.connected.Load() {
		m.onConnect = append(m.onConnect, fn)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	go fn()
}

func (m *MongodbDB) setConnected(v bool) {
	m.mu.Lock()
	was := m.connected.Swap(v)
	var pending []func()
	if v && !was {
		pending, m.onConnect = m.onConnect, nil
	}
	m.mu.Unlock()

	for _, fn := range pending {
		go fn()
	}
}

// WithTransaction wraps fn in a session transaction. Standalone servers cannot
// run transactions, so with MONGO_TRANSACTIONS=false fn runs directly and the
// nightly reconcile job repairs denormalized references instead.
func (m *MongodbDB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
