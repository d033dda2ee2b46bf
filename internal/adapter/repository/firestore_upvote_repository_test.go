package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeFlags(t *testing.T) {
	flags := decodeFlags(map[string]interface{}{
		"a": int64(1),
		"b": int64(0),
		"c": float64(1),
		"d": true,
		"e": "ignored",
	})

	assert.Equal(t, map[string]int{"a": 1, "b": 0, "c": 1, "d": 1}, flags)
}
