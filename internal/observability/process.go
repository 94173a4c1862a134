package observability

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats - снимок потребления ресурсов процессом
type ProcessStats struct {
	CPUPercent float64
	RSSBytes   uint64
	Uptime     time.Duration
}

// ProcessMonitor читает статистику текущего процесса
type ProcessMonitor struct {
	startTime time.Time
	proc      *process.Process
}

// NewProcessMonitor создаёт монитор для текущего процесса
func NewProcessMonitor() (*ProcessMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("процесс %d: %w", os.Getpid(), err)
	}
	return &ProcessMonitor{startTime: time.Now(), proc: proc}, nil
}

// Snapshot возвращает текущие CPU и RSS процесса
func (pm *ProcessMonitor) Snapshot() (ProcessStats, error) {
	stats := ProcessStats{Uptime: time.Since(pm.startTime)}

	cpuPercent, err := pm.proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, sysErr := cpu.Percent(100*time.Millisecond, false)
		if sysErr != nil || len(cpuPercents) == 0 {
			return stats, fmt.Errorf("CPU процесса: %w", err)
		}
		cpuPercent = cpuPercents[0]
	}
	stats.CPUPercent = cpuPercent

	mem, err := pm.proc.MemoryInfo()
	if err != nil {
		return stats, fmt.Errorf("память процесса: %w", err)
	}
	stats.RSSBytes = mem.RSS
	return stats, nil
}

// String форматирует снимок для отчёта
func (s ProcessStats) String() string {
	return fmt.Sprintf("CPU %.1f%%, RSS %.1f MB, аптайм %s",
		s.CPUPercent, float64(s.RSSBytes)/1024/1024, s.Uptime.Round(time.Second))
}
