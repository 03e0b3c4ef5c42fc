package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type revealState int

const (
	stateUnscheduled revealState = iota
	stateArmed
	stateSubmitting
	stateRevealed
)

func (s revealState) String() string {
	switch s {
	case stateArmed:
		return "armed"
	case stateSubmitting:
		return "submitting"
	case stateRevealed:
		return "revealed"
	default:
		return "unscheduled"
	}
}

// revealer is an unexported service running while the main application service
// is started. It makes sure a reveal transaction for each tracked pool is
// submitted before the pool's sentinel reveal deadline, minus a safety margin
// absorbing submission and confirmation latency.
// When a pool is discovered, the revealer either submits right away or arms a
// one-shot timer that re-runs the full scheduling pass, since pool state can
// change during the wait.
type revealer struct {
	vault        ports.VaultService
	repoManager  ports.RepoManager
	scheduler    ports.SchedulerService
	safetyMargin int64

	// cache of armed timers, avoids arming the same pool multiple times
	locker      sync.Locker
	armedTimers map[uint64]struct{}
	poolStates  map[uint64]revealState
}

func newRevealer(
	vault ports.VaultService,
	repoManager ports.RepoManager,
	scheduler ports.SchedulerService,
	safetyMargin int64,
) *revealer {
	return &revealer{
		vault,
		repoManager,
		scheduler,
		safetyMargin,
		&sync.Mutex{},
		make(map[uint64]struct{}),
		make(map[uint64]revealState),
	}
}

func (r *revealer) start() error {
	r.scheduler.Start()

	ctx := context.Background()

	pendingPools, err := r.repoManager.Salts().GetPendingPools(ctx)
	if err != nil {
		return err
	}

	// armed timers do not survive a restart, re-run the scheduling pass for
	// every tracked pool that is not yet revealed
	for _, pool := range pendingPools {
		if err := r.scheduleOrReveal(ctx, pool.PoolID); err != nil {
			log.WithError(err).Errorf("pool %d: failed to reschedule at startup", pool.PoolID)
		}
	}

	return nil
}

func (r *revealer) stop() {
	r.scheduler.Stop()
}

// scheduleOrReveal runs one full scheduling pass for a pool: it re-reads the
// authoritative pool state, records the pool association, then either submits
// the reveal now or arms a timer for deadline minus safety margin.
// It is safe to run multiple times for the same pool.
func (r *revealer) scheduleOrReveal(ctx context.Context, poolID uint64) error {
	pool, err := r.vault.GetPool(ctx, poolID)
	if err != nil {
		return fmt.Errorf("failed to read pool %d: %s", poolID, err)
	}
	if !pool.HasSentinel() {
		return nil
	}
	if !strings.EqualFold(pool.Sentinel, r.vault.SentinelAddress()) {
		return nil
	}

	commitment := strings.ToLower(pool.SentinelCommitHash)
	salts := r.repoManager.Salts()

	record, err := salts.GetSalt(ctx, commitment)
	if err != nil {
		if errors.Is(err, domain.ErrSaltNotFound) {
			log.Warnf("pool %d: no salt found for commitment %s", poolID, commitment)
			// track the bare mapping for diagnostics, nothing to reveal
			return salts.MarkPoolAssociation(ctx, poolID, commitment)
		}
		return err
	}

	if err := salts.MarkPoolAssociation(ctx, poolID, commitment); err != nil {
		return err
	}

	if pool.SentinelRevealed {
		// the chain is authoritative, don't waste gas on a duplicate reveal
		if !record.Revealed {
			if err := salts.MarkRevealed(ctx, commitment, poolID); err != nil {
				return err
			}
		}
		r.transition(poolID, stateRevealed)
		log.Infof("pool %d: already revealed", poolID)
		return nil
	}

	if pool.Finalized() {
		// a drawn or canceled pool no longer accepts a reveal
		log.Infof("pool %d: finalized without a reveal (creator %s)", poolID, pool.Creator)
		r.transition(poolID, stateRevealed)
		return nil
	}

	if r.state(poolID) == stateRevealed {
		return nil
	}

	now, err := r.vault.ChainTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain time: %s", err)
	}

	wait := revealWait(pool.SentinelRevealDeadline, r.safetyMargin, now)
	if wait == 0 {
		return r.submit(ctx, poolID, commitment, record.Salt)
	}

	return r.arm(poolID, pool.SentinelRevealDeadline, wait)
}

// arm sets up a one-shot timer re-running the scheduling pass. A pool with a
// pending timer is not armed twice.
func (r *revealer) arm(poolID uint64, deadline, wait int64) error {
	r.locker.Lock()
	if _, armed := r.armedTimers[poolID]; armed {
		r.locker.Unlock()
		return nil
	}
	r.armedTimers[poolID] = struct{}{}
	r.locker.Unlock()

	r.transition(poolID, stateArmed)
	log.Infof("pool %d: scheduled reveal in ~%ds (deadline %d)", poolID, wait, deadline)

	// wait is derived from chain timestamps, anchor it to the local clock so
	// chain-time drift cannot push the task further than intended
	at := time.Now().Unix() + wait
	task := func() {
		r.disarm(poolID)
		if err := r.scheduleOrReveal(context.Background(), poolID); err != nil {
			log.WithError(err).Errorf("pool %d: scheduled reveal pass failed", poolID)
		}
	}
	if err := r.scheduler.ScheduleTaskOnce(at, task); err != nil {
		r.disarm(poolID)
		r.transition(poolID, stateUnscheduled)
		return fmt.Errorf("failed to schedule reveal for pool %d: %s", poolID, err)
	}
	return nil
}

// submit performs a single reveal attempt. Retryable failures put the pool
// back in the armed state so a later pass or manual trigger can retry while
// time remains. Terminal contract rejections settle the pool locally.
func (r *revealer) submit(ctx context.Context, poolID uint64, commitment, salt string) error {
	if !r.beginSubmit(poolID) {
		return nil
	}

	receipt, err := r.vault.RevealSentinel(ctx, poolID, salt)
	if err != nil {
		if errors.Is(err, domain.ErrPoolFinalized) {
			log.Warnf("pool %d: reveal rejected as final: %s", poolID, err)
			r.transition(poolID, stateRevealed)
			return nil
		}
		log.Errorf("pool %d: reveal failed: %s", poolID, err)
		r.transition(poolID, stateArmed)
		return nil
	}

	log.Infof("pool %d: reveal confirmed in block %d (tx %s)", poolID, receipt.BlockNumber, receipt.TxHash)

	if err := r.repoManager.Salts().MarkRevealed(ctx, commitment, poolID); err != nil {
		r.transition(poolID, stateArmed)
		return fmt.Errorf("failed to record reveal for pool %d: %s", poolID, err)
	}
	r.transition(poolID, stateRevealed)
	return nil
}

func (r *revealer) state(poolID uint64) revealState {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.poolStates[poolID]
}

// beginSubmit moves the pool to the submitting state unless a submission is
// already in flight or the pool is settled.
func (r *revealer) beginSubmit(poolID uint64) bool {
	r.locker.Lock()
	defer r.locker.Unlock()
	if state := r.poolStates[poolID]; state == stateSubmitting || state == stateRevealed {
		return false
	}
	log.Debugf("pool %d: %s -> %s", poolID, r.poolStates[poolID], stateSubmitting)
	r.poolStates[poolID] = stateSubmitting
	return true
}

func (r *revealer) transition(poolID uint64, to revealState) {
	r.locker.Lock()
	defer r.locker.Unlock()
	from := r.poolStates[poolID]
	if from == to {
		return
	}
	log.Debugf("pool %d: %s -> %s", poolID, from, to)
	r.poolStates[poolID] = to
}

// disarm updates the cached map of armed timers
func (r *revealer) disarm(poolID uint64) {
	r.locker.Lock()
	defer r.locker.Unlock()
	delete(r.armedTimers, poolID)
}

// revealWait returns the seconds left until a reveal must be submitted, zero
// when the moment has already arrived.
func revealWait(deadline, safetyMargin, now int64) int64 {
	wait := deadline - safetyMargin - now
	if wait < 0 {
		return 0
	}
	return wait
}
