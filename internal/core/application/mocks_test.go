package application

import (
	"context"
	"sync"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockedVault struct {
	mock.Mock
}

func (m *mockedVault) SentinelAddress() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockedVault) VaultAddress() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockedVault) ChainID() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *mockedVault) GetPool(ctx context.Context, poolID uint64) (*domain.PoolInfo, error) {
	args := m.Called(ctx, poolID)

	var res *domain.PoolInfo
	if a := args.Get(0); a != nil {
		res = a.(*domain.PoolInfo)
	}
	return res, args.Error(1)
}

func (m *mockedVault) ChainTime(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockedVault) RevealSentinel(
	ctx context.Context, poolID uint64, saltHex string,
) (*ports.RevealReceipt, error) {
	args := m.Called(ctx, poolID, saltHex)

	var res *ports.RevealReceipt
	if a := args.Get(0); a != nil {
		res = a.(*ports.RevealReceipt)
	}
	return res, args.Error(1)
}

func (m *mockedVault) PoolCreatedEvents(ctx context.Context) <-chan domain.PoolCreatedEvent {
	args := m.Called(ctx)
	return args.Get(0).(<-chan domain.PoolCreatedEvent)
}

func (m *mockedVault) Close() {
	m.Called()
}

// fakeScheduler records one-shot tasks so tests can fire them manually.
type fakeScheduler struct {
	lock  sync.Mutex
	tasks []scheduledTask
}

type scheduledTask struct {
	at   int64
	task func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) Start() {}

func (s *fakeScheduler) Stop() {}

func (s *fakeScheduler) ScheduleTaskOnce(at int64, task func()) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tasks = append(s.tasks, scheduledTask{at, task})
	return nil
}

func (s *fakeScheduler) pendingTasks() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.tasks)
}

// fireAll runs and drops every pending task.
func (s *fakeScheduler) fireAll() {
	s.lock.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.lock.Unlock()

	for _, t := range tasks {
		t.task()
	}
}
