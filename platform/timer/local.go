package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/scheduler"
	"github.com/dhima/notification-scheduler/pkg/clock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrQuotaExceeded is returned when MaxArmed timers are already pending.
var ErrQuotaExceeded = errors.New("timer quota exceeded")

// pastDueDelay is how long a timer armed for a past instant waits before firing.
const pastDueDelay = time.Second

// Handler receives the payload of an elapsed timer.
type Handler func(ctx context.Context, payload []byte) error

// Config tunes the local facility.
type Config struct {
	PreciseAllowed    bool
	ApproximateWindow time.Duration
	MaxArmed          int
	HandlerTimeout    time.Duration
	Location          *time.Location
}

type armed struct {
	entry cron.EntryID
	at    time.Time
}

// Local is an in-process timer facility. Each armed timer is a one-shot cron entry
// that is removed before its payload is dispatched. Timers do not survive restarts.
type Local struct {
	cfg    Config
	logger logging.Logger
	clock  clock.Clock
	cron   *cron.Cron

	mu      sync.Mutex
	timers  map[string]armed
	handler Handler
}

// NewLocal constructs a facility using the real clock.
func NewLocal(cfg Config, logger logging.Logger) *Local {
	return NewLocalWithClock(cfg, logger, clock.RealClock{})
}

// NewLocalWithClock allows injecting a custom clock (tests).
func NewLocalWithClock(cfg Config, logger logging.Logger, clk clock.Clock) *Local {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}
	logger = logger.Named("timer")
	cl := cronLogger{logger: logger.Unwrap().Sugar()}

	return &Local{
		cfg:    cfg,
		logger: logger,
		clock:  clk,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		timers: make(map[string]armed),
	}
}

// Bind sets the function that receives elapsed payloads.
func (l *Local) Bind(h Handler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

// Start begins dispatching timers.
func (l *Local) Start() {
	l.cron.Start()
	l.logger.Info("timer facility started",
		zap.Bool("precise_allowed", l.cfg.PreciseAllowed),
		zap.Duration("approximate_window", l.cfg.ApproximateWindow),
		zap.Int("max_armed", l.cfg.MaxArmed))
}

// Stop halts dispatching and waits for running handlers or ctx.
func (l *Local) Stop(ctx context.Context) {
	select {
	case <-l.cron.Stop().Done():
	case <-ctx.Done():
	}
	l.logger.Info("timer facility stopped", zap.Int("pending", l.Count()))
}

// Arm schedules payload for delivery at at. Precise requests fail with
// scheduler.ErrPreciseDenied when disabled; approximate ones are rounded up to the window.
func (l *Local) Arm(_ context.Context, payload []byte, at time.Time, precise bool) (string, error) {
	if precise && !l.cfg.PreciseAllowed {
		return "", scheduler.ErrPreciseDenied
	}
	if !precise {
		at = roundUp(at, l.cfg.ApproximateWindow)
	}
	if earliest := l.clock.Now().Add(pastDueDelay); at.Before(earliest) {
		at = earliest
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.MaxArmed > 0 && len(l.timers) >= l.cfg.MaxArmed {
		return "", fmt.Errorf("%w: %d armed", ErrQuotaExceeded, len(l.timers))
	}

	handle := uuid.New().String()
	data := append([]byte(nil), payload...)
	entry := l.cron.Schedule(&oneShot{at: at}, cron.FuncJob(func() { l.dispatch(handle, data) }))
	l.timers[handle] = armed{entry: entry, at: at}

	l.logger.Debug("timer armed",
		zap.String("timer_handle", handle),
		zap.Time("at", at),
		zap.Bool("precise", precise))
	return handle, nil
}

// Disarm cancels a pending timer. Unknown handles are ignored.
func (l *Local) Disarm(_ context.Context, handle string) error {
	l.mu.Lock()
	t, ok := l.timers[handle]
	delete(l.timers, handle)
	l.mu.Unlock()

	if ok {
		l.cron.Remove(t.entry)
		l.logger.Debug("timer disarmed", zap.String("timer_handle", handle))
	}
	return nil
}

// Count returns the number of pending timers.
func (l *Local) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// NextFire reports when the timer behind handle will fire.
func (l *Local) NextFire(handle string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.timers[handle]
	return t.at, ok
}

func (l *Local) dispatch(handle string, payload []byte) {
	l.mu.Lock()
	t, ok := l.timers[handle]
	delete(l.timers, handle)
	h := l.handler
	l.mu.Unlock()

	if !ok {
		// Disarmed while the job was being started.
		return
	}
	l.cron.Remove(t.entry)

	if h == nil {
		l.logger.Warn("timer elapsed with no handler bound", zap.String("timer_handle", handle))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.HandlerTimeout)
	defer cancel()
	if err := h(ctx, payload); err != nil {
		l.logger.Error("timer handler failed", zap.String("timer_handle", handle), zap.Error(err))
	}
}

// oneShot is a cron.Schedule that yields a single activation.
type oneShot struct {
	at time.Time
}

// Next returns the zero time once at has been reached, which cron treats as never.
func (s *oneShot) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// roundUp moves t forward to the next multiple of window.
func roundUp(t time.Time, window time.Duration) time.Time {
	if window <= 0 {
		return t
	}
	r := t.Truncate(window)
	if r.Before(t) {
		r = r.Add(window)
	}
	return r
}

// cronLogger bridges robfig/cron's logger onto zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
