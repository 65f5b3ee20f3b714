// Package system holds host helpers: locating the newest screenshot and
// sampling process resources for performance reports.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ivlev/screenlens/internal/source"
)

// FindLatestImage returns the most recently modified image in dir.
func FindLatestImage(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !source.IsImage(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no images found in %s", dir)
	}

	return latestFile, nil
}

// Snapshot is a point-in-time view of this process and the host.
type Snapshot struct {
	RSS          uint64  `json:"rss_bytes" yaml:"rss_bytes"`
	CPUPercent   float64 `json:"cpu_percent" yaml:"cpu_percent"`
	Threads      int32   `json:"threads" yaml:"threads"`
	HostTotal    uint64  `json:"host_total_bytes" yaml:"host_total_bytes"`
	HostUsedPerc float64 `json:"host_used_percent" yaml:"host_used_percent"`
}

// TakeSnapshot samples the current process. Fields that cannot be read
// on this platform are left zero.
func TakeSnapshot() (Snapshot, error) {
	var s Snapshot

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("inspect process: %w", err)
	}
	if mi, err := p.MemoryInfo(); err == nil {
		s.RSS = mi.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}
	if n, err := p.NumThreads(); err == nil {
		s.Threads = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostTotal = vm.Total
		s.HostUsedPerc = vm.UsedPercent
	}
	return s, nil
}

// Report formats a performance summary in the same layout for every run.
func Report(build string, images int, elapsed time.Duration, s Snapshot) string {
	rate := 0.0
	if elapsed > 0 {
		rate = float64(images) / elapsed.Seconds()
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Images: %d\n"+
			"Total Time: %.2fs\n"+
			"Throughput: %.2f img/s\n"+
			"RSS: %.1f MiB | CPU: %.1f%% | Threads: %d\n"+
			"Host Memory Used: %.1f%%\n"+
			"----------------------------\n",
		build, images, elapsed.Seconds(), rate,
		float64(s.RSS)/(1<<20), s.CPUPercent, s.Threads, s.HostUsedPerc,
	)
}
