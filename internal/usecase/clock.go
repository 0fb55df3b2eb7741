package usecase

import (
	"time"

	"github.com/google/uuid"
)

// usecaseに渡す部品
type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
