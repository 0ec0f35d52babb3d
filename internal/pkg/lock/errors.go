package lock

import "errors"

// ErrLockTimeout is returned by LockContext when the key, typically a
// player's wallet busy with another buy-in or cash-out, stays held past the
// timeout.
var ErrLockTimeout = errors.New("wallet lock: timed out waiting for player")
