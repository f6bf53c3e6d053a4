package system

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats описывает ресурсы машины для подбора числа воркеров и отчета.
type HostStats struct {
	LogicalCPUs  int
	PhysicalCPUs int
	TotalMemory  uint64
	FreeMemory   uint64
	UsedPercent  float64
}

// ReadHostStats опрашивает ОС через gopsutil. При ошибке возвращает то,
// что удалось получить, с откатом к runtime.NumCPU.
func ReadHostStats() (HostStats, error) {
	s := HostStats{LogicalCPUs: runtime.NumCPU(), PhysicalCPUs: runtime.NumCPU()}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		s.LogicalCPUs = n
	}
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		s.PhysicalCPUs = n
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return s, fmt.Errorf("virtual memory: %w", err)
	}
	s.TotalMemory = vm.Total
	s.FreeMemory = vm.Available
	s.UsedPercent = vm.UsedPercent
	return s, nil
}

// SuggestWorkers ограничивает число воркеров рендера по памяти: на каждый
// воркер держим frameBytes на кадр плюс буфер пайпа ffmpeg.
func (s HostStats) SuggestWorkers(requested int, frameBytes uint64) int {
	n := requested
	if n <= 0 {
		n = s.LogicalCPUs
	}
	if n <= 0 {
		n = 1
	}
	if frameBytes > 0 && s.FreeMemory > 0 {
		perWorker := frameBytes * 8
		if limit := int(s.FreeMemory / 2 / perWorker); limit < n {
			n = limit
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (s HostStats) String() string {
	return fmt.Sprintf("CPU: %d логических / %d физических | RAM: %.1f GB свободно из %.1f GB (%.0f%% занято)",
		s.LogicalCPUs, s.PhysicalCPUs,
		float64(s.FreeMemory)/(1<<30), float64(s.TotalMemory)/(1<<30), s.UsedPercent)
}
