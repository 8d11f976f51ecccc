package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFixed_MatchesPersistedPrecision(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	at := time.Date(2026, 3, 1, 19, 30, 0, 123456789, loc)

	now := NewFixed(at).Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.Equal(t, 123456000, now.Nanosecond())
	assert.True(t, now.Equal(at.Truncate(time.Microsecond)))
}

func TestNewSystem_TruncatesToMicroseconds(t *testing.T) {
	now := NewSystem().Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
}
