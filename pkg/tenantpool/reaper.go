package tenantpool

import (
	"context"
	"database/sql"
	"time"
)

// StartReaper launches the background idle sweep. It runs on a fixed
// interval regardless of request traffic and stops when ctx is cancelled.
func (p *Pool) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("idle reaper stopped")
				return
			case <-ticker.C:
				p.reap(time.Now())
			}
		}
	}()
}

type staleHandle struct {
	tenantID string
	db       *sql.DB
}

// reap closes and removes every settled entry idle past the configured
// threshold. Entries whose construction is still in flight are skipped.
// Close failures are logged and swallowed; the entry is removed either way
// so a broken disconnect cannot pin the map. Returns the eviction count.
func (p *Pool) reap(now time.Time) int {
	p.mu.Lock()
	var stale []staleHandle
	for id, e := range p.conns {
		if !e.settled {
			continue
		}
		if now.Sub(e.lastUsed) > p.cfg.IdleTimeout {
			stale = append(stale, staleHandle{tenantID: id, db: e.db})
			delete(p.conns, id)
		}
	}
	p.mu.Unlock()

	for _, s := range stale {
		pooledEntries.Dec()
		evictionsTotal.WithLabelValues("idle").Inc()
		if err := s.db.Close(); err != nil {
			p.logger.Warn("closing idle tenant handle", "tenant_id", s.tenantID, "error", err)
			continue
		}
		p.logger.Info("evicted idle tenant handle", "tenant_id", s.tenantID)
	}
	return len(stale)
}
