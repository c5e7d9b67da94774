package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("civicsearch.runtime")
var cpuGauge, _ = meter.Float64Gauge("sweep_cpu_usage")
var heapGauge, _ = meter.Int64Gauge("sweep_heap_mb")
var liveObjectsGauge, _ = meter.Int64Gauge("sweep_live_objects")
var goroutineGauge, _ = meter.Int64Gauge("sweep_goroutines")

// InstrumentPerfStats samples process health once a minute for the
// duration of a sweep: cpu, heap size, live objects and goroutine count.
// Stops when ctx is cancelled.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				usage, err := cpu.Percent(time.Second*15, false)
				if err != nil {
					slog.Warn("failed to read cpu usage", "err", err)
				} else if len(usage) > 0 {
					cpuGauge.Record(ctx, usage[0])
				}

				heapGauge.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
				liveObjectsGauge.Record(ctx, int64(memStats.Mallocs)-int64(memStats.Frees))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}
