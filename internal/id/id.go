// Package id issues trade identifiers. IDs are ULIDs, so sorting a trade
// ledger by ID reproduces close order even when several trades close on the
// same bar.
package id

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

// entropy is monotonic within a millisecond, which is what keeps same-bar
// IDs ordered. ulid.Monotonic is not safe for concurrent use, hence the
// mutex: parallel optimizer runs all close trades through here.
var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a time-sortable trade ID.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
