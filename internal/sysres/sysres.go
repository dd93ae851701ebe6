// Package sysres derives worker-pool sizing from the machine the run is on.
// The numbers are computed once per run, not per segment.
package sysres

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// defaultMemoryBytes stands in when total memory cannot be determined (8 GiB).
const defaultMemoryBytes = 8 << 30

// bytesPerWorker is the memory budget assumed per concurrent day fetch. A day
// of minute bars for a large option chain stays well under this.
const bytesPerWorker = 512 << 20

// maxWorkers caps fan-out regardless of hardware; the upstream session is
// rate-limited and more parallelism just queues on the limiter.
const maxWorkers = 8

// Resources describes the host.
type Resources struct {
	Cores       int
	MemoryBytes uint64
}

// Detect inspects the host once. Memory comes from /proc/meminfo where
// available and falls back to a conservative default elsewhere.
func Detect() Resources {
	return Resources{
		Cores:       runtime.NumCPU(),
		MemoryBytes: totalMemory(),
	}
}

// Workers returns the bounded day-fetch worker count for this host.
func (r Resources) Workers() int {
	n := r.Cores
	if byMem := int(r.MemoryBytes / bytesPerWorker); byMem < n {
		n = byMem
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ChunkRows returns the in-memory row budget for batch post-processing,
// scaled by available memory.
func (r Resources) ChunkRows() int {
	memGB := int(r.MemoryBytes >> 30)
	rows := memGB * 1000
	if rows > 50000 {
		rows = 50000
	}
	if rows < 1000 {
		rows = 1000
	}
	return rows
}

func totalMemory() uint64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return defaultMemoryBytes
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			break
		}
		return kb * 1024
	}
	return defaultMemoryBytes
}
