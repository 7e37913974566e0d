package parallel

import "sync"
import "encoding/binary"

// MoveSet is a thread-safe set of (state, move) pairs seen at one score level.
// The retrain loop uses it to avoid retraining the same hashtron from the same
// network state twice. When the level changes, the set is cleared.
type MoveSet struct {
	mu    sync.RWMutex
	set   map[[40]byte]struct{}
	level byte
}

// NewMoveSet initializes and returns a new MoveSet instance. Initial level is 0.
func NewMoveSet() *MoveSet {
	return &MoveSet{
		set: make(map[[40]byte]struct{}),
	}
}

// Insert adds a move to the set, clearing the set first if level differs
// from the current level.
func (m *MoveSet) Insert(state [32]byte, move int, level byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.level != level {
		m.set = make(map[[40]byte]struct{})
		m.level = level
	}
	m.set[serialize(state, move)] = struct{}{}
}

// Exists checks if a move exists in the set for the given level.
func (m *MoveSet) Exists(state [32]byte, move int, level byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.level != level {
		return false
	}

	_, exists := m.set[serialize(state, move)]
	return exists
}

// Len reports the number of moves at the current level.
func (m *MoveSet) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.set)
}

func serialize(state [32]byte, move int) [40]byte {
	var key [40]byte
	copy(key[:32], state[:])
	binary.LittleEndian.PutUint64(key[32:], uint64(move))
	return key
}
