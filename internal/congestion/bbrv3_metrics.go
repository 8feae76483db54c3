package congestion

import (
	"math"
	"time"
)

// ExperimentalMetrics contains advanced metrics for BBRv3 experiments
type ExperimentalMetrics struct {
	// Pacing and CWND gains
	PacingGain float64 `json:"pacing_gain"` // Current pacing gain
	CWNDGain   float64 `json:"cwnd_gain"`   // Current CWND gain
	
	// ProbeRTT metrics
	ProbeRTTMinMs float64 `json:"probe_rtt_min_ms"` // Minimum RTT during ProbeRTT
	
	// Bufferbloat and stability
	BufferbloatFactor float64 `json:"bufferbloat_factor"` // (avg_rtt / min_rtt) - 1
	StabilityIndex    float64 `json:"stability_index"`    // Δ throughput / Δ rtt
	
	// Phase timing
	PhaseDurationMs map[string]float64 `json:"phase_duration_ms"` // Duration of each phase
	
	// Recovery metrics
	RecoveryTimeMs float64 `json:"recovery_time_ms"` // Time to recover from loss
	
	// Loss recovery efficiency
	LossRecoveryEfficiency float64 `json:"loss_recovery_efficiency"` // recovered / lost
}

// CalculatePacingGain returns the current pacing gain based on state
// ProbeBW uses the same cycle as OnAck: [1.25,1,0.75,1]; the 1.28 low-loss
// probe-up boost applied in OnAck is not reflected here
func (b *BBRv3) CalculatePacingGain() float64 {
	switch b.state {
	case bbrv3Startup:
		return b.params.StartupPacingGain // 2.77
	case bbrv3Drain:
		return b.params.DrainPacingGain // 0.32 with OptimizedBBRv3Parameters
	case bbrv3ProbeBW:
		gains := []float64{1.25, 1.0, 0.75, 1.0}
		return gains[b.cycleIdx%len(gains)]
	case bbrv3ProbeRTT:
		return 0.5
	default:
		return 1.0
	}
}

// CalculateCWNDGain returns the current CWND gain based on state
// ProbeBW uses the same cycle as the pacing gain: [1.25,1,0.75,1]
func (b *BBRv3) CalculateCWNDGain() float64 {
	switch b.state {
	case bbrv3Startup:
		return 2.0 // Aggressive in startup
	case bbrv3Drain:
		return 1.0
	case bbrv3ProbeBW:
		// Synchronized with pacing gain
		gains := []float64{1.25, 1.0, 0.75, 1.0}
		return gains[b.cycleIdx%len(gains)]
	case bbrv3ProbeRTT:
		return 0.5
	default:
		return 1.0
	}
}

// CalculateBufferbloatFactor calculates bufferbloat: (avg_rtt / min_rtt) - 1
// avg_rtt should be passed from external measurements
func (b *BBRv3) CalculateBufferbloatFactor(avgRTT time.Duration) float64 {
	if b.minRTT <= 0 || avgRTT <= 0 {
		return 0.0
	}
	if avgRTT < b.minRTT {
		return 0.0 // No bufferbloat if avg < min (shouldn't happen)
	}
	return (float64(avgRTT) / float64(b.minRTT)) - 1.0
}

// CalculateStabilityIndex calculates stability: Δ throughput / Δ rtt
// Requires recent throughput and RTT samples
func CalculateStabilityIndex(throughputDelta, rttDelta float64) float64 {
	if rttDelta == 0 {
		return 0.0
	}
	// Normalize: stability = |Δthroughput / Δrtt| * normalization_factor
	// Lower is better (more stable)
	return math.Abs(throughputDelta / rttDelta)
}

// JainFairnessIndex calculates Jain's Fairness Index for multiple flows
// Formula: (Σx_i)² / (n * Σx_i²) where x_i are throughput values
func JainFairnessIndex(throughputs []float64) float64 {
	if len(throughputs) == 0 {
		return 0.0
	}
	if len(throughputs) == 1 {
		return 1.0 // Single flow is always fair
	}
	
	sum := 0.0
	sumSquares := 0.0
	
	for _, t := range throughputs {
		if t < 0 {
			t = 0 // Negative throughput doesn't make sense
		}
		sum += t
		sumSquares += t * t
	}
	
	if sum == 0 || sumSquares == 0 {
		return 0.0
	}
	
	n := float64(len(throughputs))
	return (sum * sum) / (n * sumSquares)
}

// CalculateRTTPercentiles calculates p50, p95, p99 from RTT samples
func CalculateRTTPercentiles(rttSamples []time.Duration) (p50, p95, p99 time.Duration) {
	if len(rttSamples) == 0 {
		return 0, 0, 0
	}
	
	// Convert to float64 for sorting
	samples := make([]float64, len(rttSamples))
	for i, rtt := range rttSamples {
		samples[i] = float64(rtt.Nanoseconds()) / 1e6 // Convert to ms
	}
	
	// Sort
	for i := 0; i < len(samples)-1; i++ {
		for j := i + 1; j < len(samples); j++ {
			if samples[i] > samples[j] {
				samples[i], samples[j] = samples[j], samples[i]
			}
		}
	}
	
	n := len(samples)
	p50Idx := int(float64(n) * 0.50)
	p95Idx := int(float64(n) * 0.95)
	p99Idx := int(float64(n) * 0.99)
	
	if p50Idx >= n {
		p50Idx = n - 1
	}
	if p95Idx >= n {
		p95Idx = n - 1
	}
	if p99Idx >= n {
		p99Idx = n - 1
	}
	
	p50 = time.Duration(samples[p50Idx] * 1e6) // Convert back to nanoseconds
	p95 = time.Duration(samples[p95Idx] * 1e6)
	p99 = time.Duration(samples[p99Idx] * 1e6)
	
	return
}

// CalculateJitter calculates standard deviation of RTT samples
func CalculateJitter(rttSamples []time.Duration) time.Duration {
	if len(rttSamples) == 0 {
		return 0
	}
	
	// Convert to ms for calculation
	samples := make([]float64, len(rttSamples))
	for i, rtt := range rttSamples {
		samples[i] = float64(rtt.Nanoseconds()) / 1e6
	}
	
	// Calculate mean
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	
	// Calculate variance
	variance := 0.0
	for _, s := range samples {
		diff := s - mean
		variance += diff * diff
	}
	variance /= float64(len(samples))
	
	// Standard deviation
	stdDev := math.Sqrt(variance)
	
	return time.Duration(stdDev * 1e6) // Convert back to nanoseconds
}

// CalculateGoodput calculates goodput: (bytes_acked - retransmitted_bytes) / time
func CalculateGoodput(bytesAcked, retransmittedBytes int64, duration time.Duration) float64 {
	if duration <= 0 {
		return 0.0
	}
	goodputBytes := bytesAcked - retransmittedBytes
	if goodputBytes < 0 {
		goodputBytes = 0
	}
	return float64(goodputBytes) / duration.Seconds()
}

// CalculateRetransmissionRate calculates retransmission rate: retransmitted / sent
func CalculateRetransmissionRate(retransmittedPackets, sentPackets int64) float64 {
	if sentPackets == 0 {
		return 0.0
	}
	return float64(retransmittedPackets) / float64(sentPackets)
}

// CalculateRecoveryTime estimates recovery time from loss events
// This should be measured externally by tracking time from loss to full recovery
func CalculateRecoveryTime(lossEventTime, recoveryTime time.Time) time.Duration {
	if recoveryTime.Before(lossEventTime) {
		return 0
	}
	return recoveryTime.Sub(lossEventTime)
}

// CalculateLossRecoveryEfficiency calculates: recovered_packets / lost_packets
func CalculateLossRecoveryEfficiency(recoveredPackets, lostPackets int64) float64 {
	if lostPackets == 0 {
		return 1.0 // No losses means perfect recovery
	}
	efficiency := float64(recoveredPackets) / float64(lostPackets)
	if efficiency > 1.0 {
		efficiency = 1.0 // Cap at 100%
	}
	return efficiency
}

