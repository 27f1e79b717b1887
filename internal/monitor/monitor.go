// Package monitor samples CPU and memory usage of the current process
// while a sharing session runs, so each session report can carry a
// resource summary alongside its stage timings.
package monitor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/preshare/internal/logging"
	"github.com/shirou/gopsutil/process"
)

// Sample is a single point-in-time resource reading.
type Sample struct {
	Timestamp  time.Time `json:"timestamp"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
}

// Summary aggregates all samples collected between Start and Stop.
type Summary struct {
	AvgCPUPercent  float64 `json:"avg_cpu_percent"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	AvgRSSBytes    uint64  `json:"avg_rss_bytes"`
	PeakRSSBytes   uint64  `json:"peak_rss_bytes"`
	Samples        int     `json:"samples"`
}

// Monitor periodically samples the current process.
type Monitor struct {
	interval time.Duration
	proc     *process.Process
	logger   logging.Logger

	mu      sync.Mutex
	samples []Sample

	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, logger logging.Logger) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{interval: interval, proc: proc, logger: logger}, nil
}

// Start launches the sampling loop. It returns immediately; the loop
// runs until Stop is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.sample(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sampling loop and returns the summary of everything
// collected so far. Safe to call once per Start.
func (m *Monitor) Stop() Summary {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	return m.summary()
}

func (m *Monitor) sample(ctx context.Context) {
	cpuPct, err := m.proc.CPUPercent()
	if err != nil {
		m.logger.Warn(ctx, "cpu sample failed", "error", err)
		return
	}
	memInfo, err := m.proc.MemoryInfo()
	if err != nil {
		m.logger.Warn(ctx, "memory sample failed", "error", err)
		return
	}

	m.mu.Lock()
	m.samples = append(m.samples, Sample{
		Timestamp:  time.Now(),
		CPUPercent: cpuPct,
		RSSBytes:   memInfo.RSS,
	})
	m.mu.Unlock()
}

func (m *Monitor) summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{Samples: len(m.samples)}
	if s.Samples == 0 {
		return s
	}

	var cpuSum float64
	var rssSum uint64
	for _, smp := range m.samples {
		cpuSum += smp.CPUPercent
		rssSum += smp.RSSBytes
		if smp.CPUPercent > s.PeakCPUPercent {
			s.PeakCPUPercent = smp.CPUPercent
		}
		if smp.RSSBytes > s.PeakRSSBytes {
			s.PeakRSSBytes = smp.RSSBytes
		}
	}
	s.AvgCPUPercent = cpuSum / float64(s.Samples)
	s.AvgRSSBytes = rssSum / uint64(s.Samples)
	return s
}
