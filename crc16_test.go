package holdfast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16Deterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	assert.Equal(t, crc16(data), crc16(data))
}

func TestCRC16DetectsCorruption(t *testing.T) {
	original := []byte("holdfast value record")
	corrupted := append([]byte(nil), original...)
	corrupted[3] ^= 0xFF
	assert.NotEqual(t, crc16(original), crc16(corrupted))
}

func TestCRC16Empty(t *testing.T) {
	assert.Equal(t, uint16(0), crc16(nil))
}
