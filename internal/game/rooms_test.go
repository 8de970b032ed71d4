package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRooms(t *testing.T) {
	r := NewRooms()

	assert.False(t, r.AddPlayer("lobby", "alice"), "room does not exist yet")
	assert.Empty(t, r.Players("lobby"))
	assert.NotNil(t, r.Players("lobby"))

	r.CreateRoom("lobby")
	assert.True(t, r.Exists("lobby"))
	assert.True(t, r.AddPlayer("lobby", "alice"))
	assert.True(t, r.AddPlayer("lobby", "bob"))

	r.CreateRoom("lobby")
	assert.Equal(t, []string{"alice", "bob"}, r.Players("lobby"), "re-creating keeps members")

	assert.False(t, r.AddPlayer("lobby", "alice"))
	assert.Equal(t, []string{"alice", "bob"}, r.Players("lobby"))
}

func TestRoomsSnapshotIsCopy(t *testing.T) {
	r := NewRooms()
	r.CreateRoom("lobby")
	r.AddPlayer("lobby", "alice")

	snapshot := r.Players("lobby")
	snapshot[0] = "mallory"

	assert.Equal(t, []string{"alice"}, r.Players("lobby"))
}

func TestRoomsConcurrentJoins(t *testing.T) {
	r := NewRooms()
	r.CreateRoom("lobby")

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.AddPlayer("lobby", fmt.Sprintf("p%d", i%10)) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	assert.Len(t, r.Players("lobby"), 10)
}

func TestRoomsHasAll(t *testing.T) {
	r := NewRooms()
	r.CreateRoom("lobby")
	r.AddPlayer("lobby", "a")
	r.AddPlayer("lobby", "b")

	assert.False(t, r.HasAll("lobby", map[string]int{"a": 1}))
	assert.True(t, r.HasAll("lobby", map[string]int{"a": 1, "b": 2}))
	assert.True(t, r.HasAll("lobby", map[string]int{"a": 1, "b": 2, "ghost": 3}))
}
