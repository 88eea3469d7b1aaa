// Package session 提供会话刷新守卫：同一时刻至多一个刷新请求在途，
// 其余因认证失败而到达的请求排队，刷新结束后按入队顺序重放或统一拒绝。
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"postify/pkg/logger"
	"postify/pkg/metrics"

	"go.uber.org/zap"
)

// State 守卫状态
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrRefreshFailed 刷新失败时，发起者和所有排队请求收到的错误都包装了它
var ErrRefreshFailed = errors.New("session refresh failed")

// RefreshFunc 刷新会话凭证
type RefreshFunc func(ctx context.Context) error

// ReplayFunc 在刷新成功后重新发起原请求
type ReplayFunc func(ctx context.Context) error

type waiter struct {
	release chan error // 容量为 1，释放方从不阻塞
	done    chan struct{}
	once    sync.Once
}

func newWaiter() *waiter {
	return &waiter{
		release: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func (w *waiter) finish() {
	w.once.Do(func() { close(w.done) })
}

// Guard 会话刷新守卫
type Guard struct {
	refresh RefreshFunc
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.MetricsCollector

	mu    sync.Mutex
	state State
	queue []*waiter
}

// Option 配置 Guard
type Option func(*Guard)

func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) { g.logger = logger.OrNop(l) }
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithTimeout 限制单次刷新的耗时，0 表示不限制
func WithTimeout(d time.Duration) Option {
	return func(g *Guard) { g.timeout = d }
}

// NewGuard 创建守卫
func NewGuard(refresh RefreshFunc, opts ...Option) *Guard {
	g := &Guard{
		refresh: refresh,
		logger:  zap.NewNop(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State 当前状态
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Parked 当前排队等待的请求数
func (g *Guard) Parked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Do 处理一次认证失败
//
// 守卫空闲时，调用方成为发起者：执行刷新，结束后释放队列，刷新成功则直接重放自己的请求。
// 刷新进行中时，调用方入队等待；刷新成功后按入队顺序逐个释放，
// 前一个请求的重放返回后才释放下一个，保证重放按 FIFO 顺序发出。
// 刷新失败时所有人都收到包装了 ErrRefreshFailed 的错误，不会重放。
func (g *Guard) Do(ctx context.Context, replay ReplayFunc) error {
	g.mu.Lock()
	if g.state == StateRefreshing {
		w := newWaiter()
		g.queue = append(g.queue, w)
		parked := len(g.queue)
		g.mu.Unlock()

		g.metrics.SetParkedRequests(parked)
		g.logger.Debug("request parked behind session refresh", zap.Int("position", parked))
		return g.wait(ctx, w, replay)
	}
	g.state = StateRefreshing
	g.mu.Unlock()

	err := g.runRefresh(ctx)

	g.mu.Lock()
	queue := g.queue
	g.queue = nil
	g.state = StateIdle
	g.mu.Unlock()
	g.metrics.SetParkedRequests(0)

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		g.logger.Warn("session refresh failed", zap.Int("parked", len(queue)), zap.Error(err))
		for _, w := range queue {
			w.release <- err
		}
		return err
	}

	g.logger.Debug("session refreshed", zap.Int("parked", len(queue)))
	if len(queue) > 0 {
		go g.drain(queue)
	}
	return replay(ctx)
}

func (g *Guard) runRefresh(ctx context.Context) error {
	// 发起者放弃等待不应让排队的请求一起失败
	rctx := context.WithoutCancel(ctx)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, g.timeout)
		defer cancel()
	}

	g.logger.Debug("session refresh started")
	err := g.refresh(rctx)
	g.metrics.RecordSessionRefresh(err)
	return err
}

func (g *Guard) wait(ctx context.Context, w *waiter, replay ReplayFunc) error {
	select {
	case err := <-w.release:
		defer w.finish()
		if err != nil {
			return err
		}
		return replay(ctx)
	case <-ctx.Done():
		g.unpark(w)
		w.finish()
		return ctx.Err()
	}
}

// unpark 把放弃等待的请求移出队列；队列已交给 drain 时由 done 跳过
func (g *Guard) unpark(w *waiter) {
	g.mu.Lock()
	removed := false
	for i, q := range g.queue {
		if q == w {
			g.queue = append(g.queue[:i:i], g.queue[i+1:]...)
			removed = true
			break
		}
	}
	parked := len(g.queue)
	g.mu.Unlock()

	if removed {
		g.metrics.SetParkedRequests(parked)
	}
}

func (g *Guard) drain(queue []*waiter) {
	for _, w := range queue {
		w.release <- nil
		<-w.done
	}
}
