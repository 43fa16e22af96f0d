package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSnowFlakeRejectsOutOfRangeWorkerId(t *testing.T) {
	for _, id := range []int64{-1, maxWorkerId + 1, 33} {
		err := InitSnowFlake(id, nil)
		assert.Error(t, err, "workerId=%d", id)
	}
}

func TestSnowFlakeDistinctWorkers(t *testing.T) {
	a, err := newSnowFlake(1, 0)
	require.NoError(t, err)
	b, err := newSnowFlake(maxWorkerId, 0)
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		for _, sf := range []*Snowflake{a, b} {
			id, err := sf.NextId()
			require.NoError(t, err)
			assert.False(t, seen[id])
			seen[id] = true
		}
	}
	_, err = newSnowFlake(maxWorkerId+1, 0)
	assert.Error(t, err)
}
