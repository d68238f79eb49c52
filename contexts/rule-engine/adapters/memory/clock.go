package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock implements ports.Clock over time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator implements ports.IDGenerator over google/uuid.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
