package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// MemWatcher tracks peak memory usage across the lifetime of a Driver
// run: the high-water marks of runtime.MemStats plus the kernel's
// resource-usage maximum RSS, refreshed by periodic Update calls from a
// background goroutine the way bio-fusion's memStats ticker does.
type MemWatcher struct {
	mu sync.Mutex

	alloc      uint64
	totalAlloc uint64
	sys        uint64
	heapSys    uint64
	maxRSSKB   int64
}

// Update samples current memory usage and folds it into the high-water
// marks.
func (m *MemWatcher) Update() {
	var s runtime.MemStats
	runtime.ReadMemStats(&s)

	var ru unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &ru)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alloc < s.Alloc {
		m.alloc = s.Alloc
	}
	if m.totalAlloc < s.TotalAlloc {
		m.totalAlloc = s.TotalAlloc
	}
	if m.sys < s.Sys {
		m.sys = s.Sys
	}
	if m.heapSys < s.HeapSys {
		m.heapSys = s.HeapSys
	}
	if int64(ru.Maxrss) > m.maxRSSKB {
		m.maxRSSKB = int64(ru.Maxrss)
	}
}

func (m *MemWatcher) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("Alloc: %v TotalAlloc: %v Sys: %v HeapSys: %v MaxRSSKB: %v",
		m.alloc, m.totalAlloc, m.sys, m.heapSys, m.maxRSSKB)
}
