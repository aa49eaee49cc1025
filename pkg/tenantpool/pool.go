package tenantpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// Acquisition errors.
var (
	ErrAcquireTimeout = errors.New("tenant connection acquisition timed out")
	ErrPoolClosed     = errors.New("tenant pool is closed")
)

// Connector opens a live database handle for the given DSN.
type Connector func(ctx context.Context, dsn string) (*sql.DB, error)

// Config holds pool tuning parameters. Set once at startup.
type Config struct {
	// MaxPoolSize is an advisory cap handed to each tenant handle via
	// SetMaxOpenConns. It does not bound the number of tenant entries.
	MaxPoolSize int

	// IdleTimeout is how long an unused handle survives before the reaper
	// closes it.
	IdleTimeout time.Duration

	// AcquireTimeout bounds the connect step when a new handle is built.
	// Queries issued through the returned handle are not bounded by it.
	AcquireTimeout time.Duration

	// Connector overrides how handles are opened. Defaults to a Postgres
	// open plus ping.
	Connector Connector

	Logger *slog.Logger
}

// entry is one pooled tenant handle. ready is closed once construction
// settles; db and err must only be read after that.
type entry struct {
	db       *sql.DB
	err      error
	ready    chan struct{}
	lastUsed time.Time
	settled  bool
}

// Pool maps tenant ids to live database handles, created lazily on first
// acquire. Concurrent callers for the same tenant share one handle;
// *sql.DB tolerates concurrent query issuance. At most one entry exists
// per tenant at any time.
type Pool struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	conns  map[string]*entry
	closed bool
}

// New creates a tenant connection pool.
func New(cfg Config) *Pool {
	if cfg.Connector == nil {
		cfg.Connector = pqConnector
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[string]*entry),
	}
}

func pqConnector(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Acquire returns the live handle for tenantID, building one on first use.
// Construction is single-flight per tenant: concurrent callers for the same
// uncached tenant wait on one connect instead of racing duplicates. On a
// cache hit the idle clock is refreshed in the same critical section as the
// lookup, so the reaper cannot evict the handle between lookup and return.
func (p *Pool) Acquire(ctx context.Context, tenantID, dsn string) (*sql.DB, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if e, ok := p.conns[tenantID]; ok {
		if e.settled {
			e.lastUsed = time.Now()
			db := e.db
			p.mu.Unlock()
			acquiresTotal.WithLabelValues("hit").Inc()
			return db, nil
		}
		// Construction in flight; wait for the leader's result.
		p.mu.Unlock()
		return p.await(ctx, e)
	}

	e := &entry{ready: make(chan struct{})}
	p.conns[tenantID] = e
	p.mu.Unlock()

	acquiresTotal.WithLabelValues("miss").Inc()
	start := time.Now()

	connectCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	db, err := p.cfg.Connector(connectCtx, dsn)
	cancel()

	if err != nil {
		// Close any partially opened handle; nothing will ever reap it.
		if db != nil {
			db.Close()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: tenant %s after %s", ErrAcquireTimeout, tenantID, time.Since(start).Round(time.Millisecond))
			acquireFailuresTotal.WithLabelValues("timeout").Inc()
		} else {
			err = fmt.Errorf("connect tenant %s: %w", tenantID, err)
			acquireFailuresTotal.WithLabelValues("connect").Inc()
		}
		p.mu.Lock()
		e.err = err
		e.settled = true
		delete(p.conns, tenantID)
		p.mu.Unlock()
		close(e.ready)
		return nil, err
	}

	if p.cfg.MaxPoolSize > 0 {
		db.SetMaxOpenConns(p.cfg.MaxPoolSize)
	}

	p.mu.Lock()
	if p.closed {
		// Shutdown won the race; the entry is no longer in the map and
		// nothing would ever reap this handle.
		e.err = ErrPoolClosed
		e.settled = true
		p.mu.Unlock()
		close(e.ready)
		db.Close()
		return nil, ErrPoolClosed
	}
	e.db = db
	e.lastUsed = time.Now()
	e.settled = true
	p.mu.Unlock()
	close(e.ready)

	pooledEntries.Inc()
	p.logger.Info("tenant handle created",
		"tenant_id", tenantID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return db, nil
}

// await blocks until an in-flight construction settles and shares its
// outcome.
func (p *Pool) await(ctx context.Context, e *entry) (*sql.DB, error) {
	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.lastUsed = time.Now()
	acquiresTotal.WithLabelValues("hit").Inc()
	return e.db, nil
}

// Release closes and removes the tenant's handle if present. It is
// idempotent, and a no-op for entries whose construction is still in
// flight.
func (p *Pool) Release(tenantID string) {
	p.mu.Lock()
	e, ok := p.conns[tenantID]
	if !ok || !e.settled {
		p.mu.Unlock()
		return
	}
	delete(p.conns, tenantID)
	p.mu.Unlock()

	pooledEntries.Dec()
	evictionsTotal.WithLabelValues("explicit").Inc()
	if err := e.db.Close(); err != nil {
		p.logger.Warn("closing tenant handle", "tenant_id", tenantID, "error", err)
	}
}

// Size reports the number of pooled entries.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Has reports whether a handle exists for tenantID. Diagnostic only: it
// does not refresh the entry's idle clock.
func (p *Pool) Has(tenantID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.conns[tenantID]
	return ok
}

// Shutdown drains the pool: no further acquires succeed and every settled
// handle is closed concurrently. It returns once all closes finish or ctx
// expires, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	type drained struct {
		id string
		db *sql.DB
	}
	var toClose []drained
	for id, e := range p.conns {
		// Unsettled entries are abandoned; their leader closes the handle
		// itself once it observes the closed flag.
		if e.settled && e.db != nil {
			toClose = append(toClose, drained{id: id, db: e.db})
		}
	}
	p.conns = make(map[string]*entry)
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, d := range toClose {
		pooledEntries.Dec()
		evictionsTotal.WithLabelValues("shutdown").Inc()
		wg.Add(1)
		go func(id string, db *sql.DB) {
			defer wg.Done()
			if err := db.Close(); err != nil {
				p.logger.Warn("closing tenant handle at shutdown", "tenant_id", id, "error", err)
			}
		}(d.id, d.db)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("tenant pool drained", "closed", len(toClose))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
