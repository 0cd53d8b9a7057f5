package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoAccountAvailable = errors.New("no account available")
	ErrNoChatOpen         = errors.New("no chat open")
	ErrResolutionFailed   = errors.New("chat reference could not be resolved")
	ErrNoDiscussion       = errors.New("post has no discussion thread")
)

// RPCError is a structured failure reported by the remote RPC client.
// Code carries the remote's error identifier (e.g. SESSION_REVOKED,
// FLOOD_WAIT_30); Description is free-form text.
type RPCError struct {
	Code        string
	Status      int
	Description string
}

func (e *RPCError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("rpc error %s (%d)", e.Code, e.Status)
	}
	return fmt.Sprintf("rpc error %s (%d): %s", e.Code, e.Status, e.Description)
}

// fatalAccountCodes are the conditions under which a session is permanently
// unusable and the account must be retired.
var fatalAccountCodes = []string{
	"USER_DEACTIVATED",
	"USER_DEACTIVATED_BAN",
	"SESSION_REVOKED",
	"AUTH_KEY_UNREGISTERED",
}

var rateLimitCodes = []string{
	"FLOOD_WAIT",
	"PEER_FLOOD",
	"SLOWMODE_WAIT",
	"FLOOD_PREMIUM_WAIT",
}

// Classification buckets a remote failure for the account runner.
type Classification int

const (
	// ClassOther propagates unchanged.
	ClassOther Classification = iota
	// ClassFatalAccount retires the account.
	ClassFatalAccount
	// ClassRateLimited flags the account and fails this call; no retry.
	ClassRateLimited
	// ClassTransientReentrancy is retried locally a bounded number of times.
	ClassTransientReentrancy
)

func (c Classification) String() string {
	switch c {
	case ClassFatalAccount:
		return "fatal_account"
	case ClassRateLimited:
		return "rate_limited"
	case ClassTransientReentrancy:
		return "transient_reentrancy"
	default:
		return "other"
	}
}

// Classify inspects an error from a remote call. Structured codes are
// consulted first; the frozen-account check falls back to substring
// matching because the remote does not surface that state as a distinct
// code on every method.
func Classify(err error) Classification {
	if err == nil {
		return ClassOther
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		code := strings.ToUpper(rpcErr.Code)
		for _, fatal := range fatalAccountCodes {
			if code == fatal {
				return ClassFatalAccount
			}
		}
		for _, limited := range rateLimitCodes {
			if strings.HasPrefix(code, limited) {
				return ClassRateLimited
			}
		}
	}
	if IsFrozen(err) {
		return ClassFatalAccount
	}
	if IsReentrancy(err) {
		return ClassTransientReentrancy
	}
	return ClassOther
}

// IsFrozen detects frozen (read-only) accounts. Best effort: the condition
// appears both as FROZEN_* codes and as plain text in descriptions.
func IsFrozen(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		if strings.Contains(strings.ToUpper(rpcErr.Code), "FROZEN") {
			return true
		}
		return strings.Contains(strings.ToUpper(rpcErr.Description), "FROZEN")
	}
	return strings.Contains(strings.ToUpper(err.Error()), "FROZEN")
}

// IsReentrancy matches the gateway's overlapping-scheduling condition that
// resolves itself on a short retry.
func IsReentrancy(err error) bool {
	return err != nil && strings.Contains(err.Error(), "task already entered")
}

// FatalAccountError is the terminal error returned to a caller whose
// operation triggered account eviction.
type FatalAccountError struct {
	Profile AccountProfile
	Reason  string
	Err     error
}

func (e *FatalAccountError) Error() string {
	return fmt.Sprintf("account %s (%d) retired: %s", e.Profile.FriendlyDisplay(), e.Profile.UserID, e.Reason)
}

func (e *FatalAccountError) Unwrap() error { return e.Err }

// RateLimitedError marks a call rejected by remote flood control. The
// account stays registered; the caller must pick another account or wait.
type RateLimitedError struct {
	Profile AccountProfile
	Err     error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("account %s (%d) rate limited: %v", e.Profile.FriendlyDisplay(), e.Profile.UserID, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }
