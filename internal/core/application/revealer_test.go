package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSalt     = "0x4242424242424242424242424242424242424242424242424242424242424242"
	otherAddress = "0x00000000000000000000000000000000000000aa"
)

type revealerFixture struct {
	revealer  *revealer
	repo      ports.RepoManager
	vault     *mockedVault
	scheduler *fakeScheduler
}

func newRevealerFixture(t *testing.T) *revealerFixture {
	t.Helper()

	repo := newTestRepoManager(t)
	vault := &mockedVault{}
	scheduler := newFakeScheduler()

	return &revealerFixture{
		revealer:  newRevealer(vault, repo, scheduler, 60),
		repo:      repo,
		vault:     vault,
		scheduler: scheduler,
	}
}

// seedSalt stores the test salt and returns its commitment.
func (f *revealerFixture) seedSalt(t *testing.T) string {
	t.Helper()

	commitment := commitmentOf(testSalt)
	err := f.repo.Salts().AddSalt(context.Background(), domain.SaltRecord{
		Commitment: commitment,
		Salt:       testSalt,
		CreatedAt:  time.Now().Unix(),
	})
	require.NoError(t, err)
	return commitment
}

func trackedPool(poolID uint64, commitment string, deadline int64) *domain.PoolInfo {
	return &domain.PoolInfo{
		ID:                     poolID,
		Creator:                otherAddress,
		Sentinel:               testSentinelAddress,
		SentinelCommitHash:     commitment,
		SentinelRevealDeadline: deadline,
	}
}

func TestRevealWait(t *testing.T) {
	testCases := []struct {
		deadline     int64
		safetyMargin int64
		now          int64
		expected     int64
	}{
		{1000, 60, 900, 40},
		{1000, 60, 950, 0},
		{1000, 60, 940, 0},
		{1000, 60, 1200, 0},
		{1000, 0, 900, 100},
		{0, 60, 0, 0},
	}

	for _, tc := range testCases {
		name := fmt.Sprintf("deadline=%d margin=%d now=%d", tc.deadline, tc.safetyMargin, tc.now)
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, revealWait(tc.deadline, tc.safetyMargin, tc.now))
		})
	}
}

func TestImmediateRevealPastDeadline(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	// discovered after the reveal window already opened
	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(trackedPool(1, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(2000), nil)
	f.vault.On("RevealSentinel", mock.Anything, uint64(1), testSalt).
		Return(&ports.RevealReceipt{TxHash: "0xdead", BlockNumber: 42}, nil)

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	f.vault.AssertNumberOfCalls(t, "RevealSentinel", 1)
	require.Zero(t, f.scheduler.pendingTasks())

	record, err := f.repo.Salts().GetSalt(context.Background(), commitment)
	require.NoError(t, err)
	require.True(t, record.Revealed)
	require.NotNil(t, record.PoolID)
	require.Equal(t, uint64(1), *record.PoolID)
}

func TestArmsTimerBeforeDeadline(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(trackedPool(1, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(900), nil).Once()

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	// wait is 40s, no submission yet
	f.vault.AssertNotCalled(t, "RevealSentinel", mock.Anything, mock.Anything, mock.Anything)
	require.Equal(t, 1, f.scheduler.pendingTasks())

	// when the timer fires the window is open
	f.vault.On("ChainTime", mock.Anything).Return(int64(941), nil)
	f.vault.On("RevealSentinel", mock.Anything, uint64(1), testSalt).
		Return(&ports.RevealReceipt{TxHash: "0xdead", BlockNumber: 42}, nil)

	f.scheduler.fireAll()

	f.vault.AssertNumberOfCalls(t, "RevealSentinel", 1)

	record, err := f.repo.Salts().GetSalt(context.Background(), commitment)
	require.NoError(t, err)
	require.True(t, record.Revealed)
}

func TestDuplicateDiscoveryIsIdempotent(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(trackedPool(1, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(900), nil)

	// same pool-creation notification delivered twice
	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))
	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	require.Equal(t, 1, f.scheduler.pendingTasks(), "re-processing must not arm a second timer")
}

func TestDuplicateRevealNotSubmitted(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(trackedPool(1, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(2000), nil)
	f.vault.On("RevealSentinel", mock.Anything, uint64(1), testSalt).
		Return(&ports.RevealReceipt{TxHash: "0xdead", BlockNumber: 42}, nil)

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))
	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	f.vault.AssertNumberOfCalls(t, "RevealSentinel", 1)
}

func TestUnknownCommitmentIsTrackedButNotRevealed(t *testing.T) {
	f := newRevealerFixture(t)

	unknown := "0x1111111111111111111111111111111111111111111111111111111111111111"

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(9)).Return(trackedPool(9, unknown, 1000), nil)

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 9))

	f.vault.AssertNotCalled(t, "RevealSentinel", mock.Anything, mock.Anything, mock.Anything)
	require.Zero(t, f.scheduler.pendingTasks())

	dump, err := f.repo.Salts().GetAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, unknown, dump.Pools[9])
}

func TestForeignPoolIsIgnored(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	pool := trackedPool(1, commitment, 1000)
	pool.Sentinel = otherAddress

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(pool, nil)

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	f.vault.AssertNotCalled(t, "RevealSentinel", mock.Anything, mock.Anything, mock.Anything)

	dump, err := f.repo.Salts().GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, dump.Pools)
}

func TestAlreadyRevealedOnChain(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	pool := trackedPool(1, commitment, 1000)
	pool.SentinelRevealed = true

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(pool, nil)

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	f.vault.AssertNotCalled(t, "RevealSentinel", mock.Anything, mock.Anything, mock.Anything)

	record, err := f.repo.Salts().GetSalt(context.Background(), commitment)
	require.NoError(t, err)
	require.True(t, record.Revealed)
}

func TestFinalizedPoolIsSettledLocally(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	pool := trackedPool(1, commitment, 1000)
	pool.Canceled = true

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(pool, nil)

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	f.vault.AssertNotCalled(t, "RevealSentinel", mock.Anything, mock.Anything, mock.Anything)
	require.Zero(t, f.scheduler.pendingTasks())

	// a later pass stays settled
	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))
	f.vault.AssertNotCalled(t, "ChainTime", mock.Anything)
}

func TestTerminalRejectionSettlesPool(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(trackedPool(1, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(2000), nil)
	f.vault.On("RevealSentinel", mock.Anything, uint64(1), testSalt).
		Return(nil, fmt.Errorf("%w: execution reverted: already revealed", domain.ErrPoolFinalized))

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	// settled locally, a later pass must not submit again
	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))
	f.vault.AssertNumberOfCalls(t, "RevealSentinel", 1)

	// the store still reflects reality: no confirmed reveal was recorded
	record, err := f.repo.Salts().GetSalt(context.Background(), commitment)
	require.NoError(t, err)
	require.False(t, record.Revealed)
}

func TestRetryableFailureAllowsRetry(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(1)).Return(trackedPool(1, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(2000), nil)
	f.vault.On("RevealSentinel", mock.Anything, uint64(1), testSalt).
		Return(nil, fmt.Errorf("reveal submission failed: rpc timeout")).Once()

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))

	record, err := f.repo.Salts().GetSalt(context.Background(), commitment)
	require.NoError(t, err)
	require.False(t, record.Revealed)

	// manual trigger retries while time remains
	f.vault.On("RevealSentinel", mock.Anything, uint64(1), testSalt).
		Return(&ports.RevealReceipt{TxHash: "0xdead", BlockNumber: 43}, nil).Once()

	require.NoError(t, f.revealer.scheduleOrReveal(context.Background(), 1))
	f.vault.AssertNumberOfCalls(t, "RevealSentinel", 2)

	record, err = f.repo.Salts().GetSalt(context.Background(), commitment)
	require.NoError(t, err)
	require.True(t, record.Revealed)
}

func TestStartupReschedulesPendingPools(t *testing.T) {
	f := newRevealerFixture(t)
	commitment := f.seedSalt(t)

	require.NoError(t, f.repo.Salts().MarkPoolAssociation(context.Background(), 3, commitment))

	f.vault.On("SentinelAddress").Return(testSentinelAddress)
	f.vault.On("GetPool", mock.Anything, uint64(3)).Return(trackedPool(3, commitment, 1000), nil)
	f.vault.On("ChainTime", mock.Anything).Return(int64(2000), nil)
	f.vault.On("RevealSentinel", mock.Anything, uint64(3), testSalt).
		Return(&ports.RevealReceipt{TxHash: "0xdead", BlockNumber: 44}, nil)

	require.NoError(t, f.revealer.start())

	f.vault.AssertNumberOfCalls(t, "RevealSentinel", 1)
}
