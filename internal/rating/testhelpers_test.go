package rating

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/abandonsearch/place-rater/internal/artifact"
	"github.com/abandonsearch/place-rater/internal/clock"
	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/pool"
	"github.com/abandonsearch/place-rater/internal/resilience"
)

var (
	t0    = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	alpha = model.Backend{Provider: model.ProviderGoogle, Model: "alpha"}
	beta  = model.Backend{Provider: model.ProviderGoogle, Model: "beta"}
	gamma = model.Backend{Provider: model.ProviderGoogle, Model: "gamma"}
)

const (
	goodJSON  = `{"Охраняемость": 3, "Заполненость интерьера": 6, "Давность здания": 8, "Общий рейтинг(0-10 stars)": 7, "Этажей": 5}`
	emptyJSON = `{"Охраняемость": 0, "Заполненость интерьера": 0, "Давность здания": 0, "Общий рейтинг(0-10 stars)": 0}`
)

type reply struct {
	text string
	err  error
}

func answer(text string) reply { return reply{text: text} }
func failure(msg string) reply { return reply{err: eris.New(msg)} }

// scripted answers each backend from its own queue, in order.
type scripted struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []string
}

func newScripted() *scripted {
	return &scripted{replies: make(map[string][]reply)}
}

func (s *scripted) on(b model.Backend, rs ...reply) *scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[b.Model] = append(s.replies[b.Model], rs...)
	return s
}

// always makes b fail n times.
func (s *scripted) failN(b model.Backend, n int) *scripted {
	for range n {
		s.on(b, failure("503 service unavailable"))
	}
	return s
}

func (s *scripted) Invoke(_ context.Context, b model.Backend, _ model.Place) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, b.Model)
	q := s.replies[b.Model]
	if len(q) == 0 {
		return "", eris.Errorf("no reply scripted for %s", b.Model)
	}
	s.replies[b.Model] = q[1:]
	return q[0].text, q[0].err
}

func (s *scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type fixture struct {
	clock *clock.Fake
	log   *artifact.FileLog
	inv   *scripted
	pool  *pool.Pool
	orch  *Orchestrator
}

func newFixture(t *testing.T, inv *scripted, backends ...model.Backend) *fixture {
	t.Helper()
	fc := clock.NewFake(t0)
	p, err := pool.New(backends, pool.WithClock(fc))
	require.NoError(t, err)
	log := artifact.NewFileLog(t.TempDir())
	exec := NewExecutor(inv, resilience.DefaultRetryConfig(), fc)
	return &fixture{
		clock: fc,
		log:   log,
		inv:   inv,
		pool:  p,
		orch:  NewOrchestrator(p, exec, log, fc, DefaultPolicy()),
	}
}

func floorsPtr(v float64) *float64 { return &v }
