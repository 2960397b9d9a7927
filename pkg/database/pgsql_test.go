package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDB_RequiresURL(t *testing.T) {
	_, err := NewDB(context.Background(), "", PoolConfig{})
	assert.EqualError(t, err, "database URL cannot be empty")
}
