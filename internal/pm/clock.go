package pm

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TimestampLayout is the layout used for created_at and updated_at.
// It is fixed-width UTC, so lexicographic order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FormatTimestamp renders t as a record timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a record timestamp. Any RFC 3339 value is accepted,
// which covers rows written by other tools against the same table.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// ULIDGenerator produces lexicographically sortable ULIDs.
type ULIDGenerator struct{}

func (ULIDGenerator) New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewIDGenerator returns the generator for the configured id format.
// An empty format selects UUIDs.
func NewIDGenerator(format string) (IDGenerator, error) {
	switch format {
	case "uuid", "":
		return UUIDGenerator{}, nil
	case "ulid":
		return ULIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id format: %q", format)
	}
}
