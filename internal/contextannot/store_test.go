package contextannot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/serialize"
)

func newStore() *Store {
	limits := config.Default()
	return New(limits, serialize.New(limits))
}

func TestSetAndGet(t *testing.T) {
	s := newStore()
	ok := s.Set("userId", "abc123")
	require.True(t, ok)

	v, found := s.Get("userId")
	require.True(t, found)
	assert.Equal(t, "abc123", v)
}

func TestEmptyKeyRejected(t *testing.T) {
	s := newStore()
	assert.False(t, s.Set("", "x"))
	assert.Equal(t, 0, s.Len())
}

func TestKeyTooLongRejected(t *testing.T) {
	s := newStore()
	longKey := strings.Repeat("k", 101)
	assert.False(t, s.Set(longKey, "x"))
}

func TestCapsAtFiftyKeys(t *testing.T) {
	s := newStore()
	limits := config.Default()
	for i := 0; i < limits.MaxContextKeys; i++ {
		ok := s.Set(keyN(i), i)
		require.True(t, ok)
	}
	assert.False(t, s.Set("one-too-many", 1))
	assert.Equal(t, limits.MaxContextKeys, s.Len())
}

func TestUpdatingExistingKeyDoesNotCountAgainstCap(t *testing.T) {
	s := newStore()
	limits := config.Default()
	for i := 0; i < limits.MaxContextKeys; i++ {
		require.True(t, s.Set(keyN(i), i))
	}
	assert.True(t, s.Set(keyN(0), "updated"))
}

func TestOversizedValueSetsSentinelAndFails(t *testing.T) {
	s := newStore()
	big := strings.Repeat("x", 5*1024)
	ok := s.Set("payload", big)
	assert.False(t, ok)

	v, found := s.Get("payload")
	require.True(t, found)
	assert.Equal(t, tooLarge, v)
}

func TestRemoveAndClear(t *testing.T) {
	s := newStore()
	s.Set("a", 1)
	s.Set("b", 2)

	s.Remove("a")
	_, found := s.Get("a")
	assert.False(t, found)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSnapshotEmptyIsNil(t *testing.T) {
	s := newStore()
	assert.Nil(t, s.Snapshot())
}

func TestSnapshotReturnsCopy(t *testing.T) {
	s := newStore()
	s.Set("a", 1)
	snap := s.Snapshot()
	require.Len(t, snap, 1)

	snap["a"] = "mutated"
	v, _ := s.Get("a")
	assert.Equal(t, int64(1), v)
}

func keyN(i int) string {
	return "k" + string(rune('A'+i%26)) + itoaLocal(i)
}

func itoaLocal(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
