package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "hrms:dashboard:summary:2024-03-01", Key("dashboard", "summary", "2024-03-01"))
	assert.Equal(t, "hrms:", Key())
}
