// Package guard provides admission control for booking keys. A key is one
// (doctor, date, start time) combination; at most one reservation may be
// held per key at a time. Reservations live until the owning appointment is
// cancelled, not for a lock-style TTL.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrKeyReserved = errors.New("booking key already reserved")

// Key identifies one bookable window of one doctor.
type Key struct {
	DoctorID    uuid.UUID
	Date        time.Time // calendar date, time component ignored
	StartMinute int       // minutes past midnight
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%04d", k.DoctorID, k.Date.Format("2006-01-02"), k.StartMinute)
}

// Guard serializes booking admission per key. TryReserve and Release must
// be atomic with respect to each other for the same key; operations on
// unrelated keys proceed independently.
type Guard interface {
	// TryReserve marks the key as held. Returns ErrKeyReserved if another
	// reservation is already live for the key.
	TryReserve(ctx context.Context, key Key) error

	// Release frees the key. Releasing a free key is a no-op.
	Release(ctx context.Context, key Key) error
}
