package monitor

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"vigia/internal/models"
)

// Rand is the subset of math/rand used by the synthesizer, injectable so
// tests can pin the sequence.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// HostProbe samples live host CPU and memory percentages. Returns ok=false
// when the host cannot be read; the synthesizer then falls back to jitter.
type HostProbe func(ctx context.Context) (cpuPct, memPct float64, ok bool)

// Synthesizer fabricates plausible snapshots when the upstream collector is
// unreachable. The jitter ranges match the demo data the real collector
// serves, so the dashboard looks identical either way.
type Synthesizer struct {
	rand  Rand
	probe HostProbe
}

// NewSynthesizer builds a Synthesizer. A nil rng gets a time-seeded source;
// probe may be nil to disable host sampling entirely.
func NewSynthesizer(rng Rand, probe HostProbe) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{rand: rng, probe: probe}
}

// GopsutilProbe reads host CPU and memory usage via gopsutil.
func GopsutilProbe(ctx context.Context) (float64, float64, bool) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(percents) == 0 {
		return 0, 0, false
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm == nil {
		return 0, 0, false
	}
	return percents[0], vm.UsedPercent, true
}

// Synthesize produces a complete fallback snapshot. The firewall device is
// seeded from live host metrics when the probe succeeds, clamped into the
// demo ranges; everything else is jittered.
func (s *Synthesizer) Synthesize(ctx context.Context, now time.Time) *models.Snapshot {
	fwCPU := s.rand.Intn(60) + 20
	fwMem := s.rand.Intn(50) + 30
	if s.probe != nil {
		if cpuPct, memPct, ok := s.probe(ctx); ok {
			fwCPU = clampInt(int(cpuPct), 20, 79)
			fwMem = clampInt(int(memPct), 30, 79)
		}
	}

	dbStatus := models.StatusOnline
	if s.rand.Float64() > 0.7 {
		dbStatus = models.StatusWarning
	}

	return &models.Snapshot{
		Devices: []models.Device{
			{
				ID:             1,
				Name:           "Firewall Principal",
				Type:           models.DeviceFirewall,
				Status:         models.StatusOnline,
				CPU:            fwCPU,
				Memory:         fwMem,
				ThreatsBlocked: s.rand.Intn(400) + 100,
			},
			{
				ID:          2,
				Name:        "Switch Core",
				Type:        models.DeviceSwitch,
				Status:      models.StatusOnline,
				PortsActive: s.rand.Intn(28) + 20,
				TrafficMbps: s.rand.Intn(800) + 100,
			},
			{
				ID:            3,
				Name:          "Database Server",
				Type:          models.DeviceDatabase,
				Status:        dbStatus,
				Connections:   s.rand.Intn(150) + 50,
				QueriesPerSec: s.rand.Intn(900) + 100,
			},
			{
				ID:             4,
				Name:           "Link Internet Principal",
				Type:           models.DeviceInternet,
				Status:         models.StatusOnline,
				LatencyMs:      s.rand.Intn(40) + 10,
				BandwidthUsage: s.rand.Intn(55) + 40,
			},
		},
		Alerts:      StarterAlerts(now),
		GeneratedAt: now,
		Synthetic:   true,
	}
}

// StarterAlerts is the fixed alert set shipped with every synthesized
// snapshot, with timestamps relative to now.
func StarterAlerts(now time.Time) []models.Alert {
	return []models.Alert{
		{
			ID:        uuid.NewString(),
			Severity:  models.SeverityWarning,
			Title:     "CPU elevada",
			Message:   "Uso de CPU elevado no Database Server",
			Device:    "Database Server",
			Action:    "Verifique o consumo de recursos do servidor de banco de dados.",
			Timestamp: now.Add(-15 * time.Minute),
		},
		{
			ID:        uuid.NewString(),
			Severity:  models.SeverityInfo,
			Title:     "Backup concluído",
			Message:   "Backup automático concluído com sucesso",
			Timestamp: now.Add(-2 * time.Hour),
		},
		{
			ID:        uuid.NewString(),
			Severity:  models.SeverityInfo,
			Title:     "Firmware disponível",
			Message:   "Atualização de firmware disponível para Switch Core",
			Device:    "Switch Core",
			Timestamp: now.Add(-5 * time.Hour),
		},
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
