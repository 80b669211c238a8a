package service

import (
	"sort"
	"sync"
)

// applianceLocks serializes read-modify-write work per appliance. Locks are
// always taken in ascending ID order so overlapping sets cannot deadlock.
type applianceLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newApplianceLocks() *applianceLocks {
	return &applianceLocks{locks: make(map[int]*sync.Mutex)}
}

// lock acquires the locks for ids and returns the function releasing them.
func (l *applianceLocks) lock(ids ...int) (unlock func()) {
	uniq := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Ints(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *applianceLocks) get(id int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
