package pglock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameKey_Deterministic(t *testing.T) {
	assert.Equal(t, NameKey("user-backfill"), NameKey("user-backfill"))
	assert.NotEqual(t, NameKey("user-backfill"), NameKey("other-job"))
}
