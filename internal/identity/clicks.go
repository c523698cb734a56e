// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package identity

import (
	"sync"
	"time"
)

// Click memory defaults.
const (
	DefaultClickMemorySize = 10000
	DefaultClickMemoryTTL  = 7 * 24 * time.Hour
)

type clickEntry struct {
	fbclid    string
	firstSeen time.Time
	expiresAt time.Time
	prev      *clickEntry
	next      *clickEntry
}

// clickMemory remembers when each fbclid was first seen by this process so
// a click keeps one timestamp when the visitor has no click id cookie yet.
//
// It is an LRU bounded by capacity. Entries expire lazily after ttl.
type clickMemory struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*clickEntry

	// head.next is the most recently used entry, tail.prev the least.
	head *clickEntry
	tail *clickEntry
}

func newClickMemory(capacity int, ttl time.Duration) *clickMemory {
	if capacity <= 0 {
		capacity = DefaultClickMemorySize
	}
	if ttl <= 0 {
		ttl = DefaultClickMemoryTTL
	}
	m := &clickMemory{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*clickEntry),
		head:     &clickEntry{},
		tail:     &clickEntry{},
	}
	m.head.next = m.tail
	m.tail.prev = m.head
	return m
}

// firstSeen returns the time fbclid was first seen, recording now if it is
// new or its entry expired.
func (m *clickMemory) firstSeen(fbclid string, now time.Time) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[fbclid]; ok {
		if now.Before(e.expiresAt) {
			m.unlink(e)
			m.pushFront(e)
			return e.firstSeen
		}
		m.remove(e)
	}

	e := &clickEntry{fbclid: fbclid, firstSeen: now, expiresAt: now.Add(m.ttl)}
	m.pushFront(e)
	m.items[fbclid] = e
	for len(m.items) > m.capacity {
		m.remove(m.tail.prev)
	}
	return now
}

func (m *clickMemory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// List helpers; callers hold mu.

func (m *clickMemory) pushFront(e *clickEntry) {
	e.prev = m.head
	e.next = m.head.next
	m.head.next.prev = e
	m.head.next = e
}

func (m *clickMemory) unlink(e *clickEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (m *clickMemory) remove(e *clickEntry) {
	m.unlink(e)
	delete(m.items, e.fbclid)
}
