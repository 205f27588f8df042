package safety

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts operation ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// OperationIDGenerator produces globally unique operation IDs of the form
// <utc-stamp>-<pid>-<uuid8>. The time and process components make concurrent
// invocations on the same host write disjoint journal and snapshot keys.
type OperationIDGenerator struct{}

func (OperationIDGenerator) New() string {
	stamp := time.Now().UTC().Format("20060102T150405")
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", stamp, os.Getpid(), suffix)
}
