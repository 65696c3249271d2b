package metrics

import (
	"maps"
	"sort"
	"sync"
	"time"
)

const maxLatencySamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	requests      int64
	outcomes      map[string]int64
	responseCodes map[int]int64
	upstreamCalls int64
	upstreamTimes []time.Duration
	upstreamCodes map[int]int64
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64            `json:"total_requests"`
	Uptime        time.Duration    `json:"uptime"`
	Outcomes      map[string]int64 `json:"outcomes"`
	ResponseCodes map[int]int64    `json:"response_codes"`
	Upstream      UpstreamMetrics  `json:"upstream"`
}

type UpstreamMetrics struct {
	Calls       int64         `json:"calls"`
	AvgLatency  time.Duration `json:"avg_latency"`
	P50Latency  time.Duration `json:"p50_latency"`
	P95Latency  time.Duration `json:"p95_latency"`
	P99Latency  time.Duration `json:"p99_latency"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func (m *Metrics) IncrementRequests() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests++
}

// RecordUpstream stores one upstream call. A zero statusCode means the call
// never produced a response (timeout or transport failure).
func (m *Metrics) RecordUpstream(duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.upstreamCalls++
	m.upstreamTimes = append(m.upstreamTimes, duration)

	if len(m.upstreamTimes) > maxLatencySamples {
		m.upstreamTimes = m.upstreamTimes[1:]
	}

	if statusCode != 0 {
		m.upstreamCodes[statusCode]++
	}
}

func (m *Metrics) RecordResponse(outcome string, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.outcomes[outcome]++
	m.responseCodes[statusCode]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests: m.requests,
		Uptime:        time.Since(m.startTime),
		Outcomes:      maps.Clone(m.outcomes),
		ResponseCodes: maps.Clone(m.responseCodes),
		Upstream: UpstreamMetrics{
			Calls:       m.upstreamCalls,
			StatusCodes: maps.Clone(m.upstreamCodes),
		},
	}

	if len(m.upstreamTimes) > 0 {
		sorted := make([]time.Duration, len(m.upstreamTimes))
		copy(sorted, m.upstreamTimes)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		snap.Upstream.AvgLatency = average(sorted)
		snap.Upstream.P50Latency = percentile(sorted, 0.50)
		snap.Upstream.P95Latency = percentile(sorted, 0.95)
		snap.Upstream.P99Latency = percentile(sorted, 0.99)
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes:      make(map[string]int64),
		responseCodes: make(map[int]int64),
		upstreamCodes: make(map[int]int64),
		startTime:     time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
