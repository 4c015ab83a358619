package walk

import (
	"time"

	"go.uber.org/zap"
)

// Expire drops sessions idle since before cutoff and returns their ids.
func (s *Service) Expire(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.updatedAt.Before(cutoff) {
			sess.tracker.Stop()
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweeper periodically expires idle sessions.
type Sweeper struct {
	svc      *Service
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func NewSweeper(svc *Service, ttl time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := time.Minute
	if q := ttl / 4; q > 0 && q < interval {
		interval = q
	}
	return &Sweeper{
		svc:      svc,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Sweeper) Start() {
	if w == nil {
		return
	}
	go w.loop()
}

// Stop halts the loop and waits for it to exit.
func (w *Sweeper) Stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	<-w.done
}

func (w *Sweeper) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Sweeper) tick() {
	expired := w.svc.Expire(w.svc.now().Add(-w.ttl))
	if len(expired) > 0 {
		w.logger.Info("expired idle sessions",
			zap.Int("count", len(expired)), zap.Int("remaining", w.svc.Len()))
	}
}
