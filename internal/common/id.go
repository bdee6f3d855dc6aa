package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates a globally unique, lexically sortable session
// identifier: session_<YYYYMMDD_HHMMSS>_<8 hex chars>.
//
// Uniqueness is probabilistic: within one second bucket the random
// suffix collides with probability ~1/16^8. Acceptable for a
// single-process deployment; a multi-instance deployment needs a
// central allocator.
func NewSessionID() string {
	timestamp := time.Now().Format("20060102_150405")
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("session_%s_%s", timestamp, suffix)
}
