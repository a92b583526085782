package ecs

import (
	"encoding/binary"
	"iter"
	"math/bits"
)

// Bitmask is a growable set of ComponentIds. The zero value is an empty set.
type Bitmask struct {
	words []uint64
}

// NewBitmask creates a bitmask with the given ids set.
func NewBitmask(ids ...ComponentId) Bitmask {
	var m Bitmask
	for _, id := range ids {
		m.Set(id)
	}
	return m
}

// Set enables the bit of the given id.
func (m *Bitmask) Set(id ComponentId) {
	word := int(id >> 6)
	for len(m.words) <= word {
		m.words = append(m.words, 0)
	}
	m.words[word] |= 1 << (id & 63)
}

// Clear disables the bit of the given id.
func (m *Bitmask) Clear(id ComponentId) {
	word := int(id >> 6)
	if word >= len(m.words) {
		return
	}
	m.words[word] &^= 1 << (id & 63)
}

// Has reports whether the bit of the given id is set.
func (m Bitmask) Has(id ComponentId) bool {
	word := int(id >> 6)
	if word >= len(m.words) {
		return false
	}
	return (m.words[word]>>(id&63))&1 != 0
}

// ContainsAll reports whether every bit of sub is also set in m.
func (m Bitmask) ContainsAll(sub Bitmask) bool {
	for i, w := range sub.words {
		var have uint64
		if i < len(m.words) {
			have = m.words[i]
		}
		if have&w != w {
			return false
		}
	}
	return true
}

// Intersects reports whether m and other share at least one bit.
func (m Bitmask) Intersects(other Bitmask) bool {
	n := min(len(m.words), len(other.words))
	for i := 0; i < n; i++ {
		if m.words[i]&other.words[i] != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set bits.
func (m Bitmask) Count() int {
	var n int
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsZero reports whether no bit is set.
func (m Bitmask) IsZero() bool {
	for _, w := range m.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (m Bitmask) Clone() Bitmask {
	return Bitmask{words: append([]uint64(nil), m.words...)}
}

// Ids iterates the set ids in ascending order.
func (m Bitmask) Ids() iter.Seq[ComponentId] {
	return func(yield func(ComponentId) bool) {
		for wordIdx, word := range m.words {
			for word != 0 {
				pos := bits.TrailingZeros64(word)
				if !yield(ComponentId(wordIdx*64 + pos)) {
					return
				}
				word &^= 1 << pos
			}
		}
	}
}

// key returns a string usable as map key, equal for equal sets.
func (m Bitmask) key() string {
	words := m.words
	for len(words) > 0 && words[len(words)-1] == 0 {
		words = words[:len(words)-1]
	}

	buf := make([]byte, 0, len(words)*8)
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}

	return string(buf)
}
