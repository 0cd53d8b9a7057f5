package application

import (
	"context"
	"errors"
	"time"

	"github.com/okhotin/tgherd/internal/domain"
)

const (
	maxReentrancyRetries = 3
	reentrancyBackoff    = 150 * time.Millisecond
)

// Run executes one remote operation on behalf of an account, holding the
// account's lock for the duration so calls on the same account never
// overlap. Failures are classified: permanently unusable sessions evict
// the account and surface as *domain.FatalAccountError; flood control
// surfaces as *domain.RateLimitedError with the account left registered;
// the gateway's transient reentrancy condition is retried with a short
// linear backoff; anything else propagates unchanged.
func (r *Registry) Run(ctx context.Context, acc *Account, op func(context.Context) error) error {
	acc.mu.Lock()
	defer acc.mu.Unlock()

	acc.LastUsed = r.clock.Now()

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		switch domain.Classify(err) {
		case domain.ClassFatalAccount:
			reason := fatalReason(err)
			r.log.Warn("account_fatal",
				"user_id", int64(acc.ID()),
				"reason", reason,
				"error", err.Error(),
			)
			r.Evict(ctx, acc.ID(), reason)
			return &domain.FatalAccountError{Profile: acc.Profile, Reason: reason, Err: err}

		case domain.ClassRateLimited:
			r.log.Warn("account_rate_limited", "user_id", int64(acc.ID()), "error", err.Error())
			r.notifier.AccountRateLimited(acc.Profile, err.Error())
			return &domain.RateLimitedError{Profile: acc.Profile, Err: err}

		case domain.ClassTransientReentrancy:
			if attempt >= maxReentrancyRetries {
				return err
			}
			backoff := time.Duration(attempt+1) * reentrancyBackoff
			r.log.Debug("reentrancy_retry", "user_id", int64(acc.ID()), "attempt", attempt+1, "backoff", backoff.String())
			select {
			case <-r.clock.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			return err
		}
	}
}

func fatalReason(err error) string {
	var rpcErr *domain.RPCError
	if errors.As(err, &rpcErr) && !domain.IsFrozen(err) {
		return rpcErr.Code
	}
	if domain.IsFrozen(err) {
		return "account frozen (read-only)"
	}
	return err.Error()
}
