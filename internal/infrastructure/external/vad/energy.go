// Package vad provides voice activity detection for the audio capture
// loops. Blocks classified as silence are dropped before segmentation so
// the transcription engines only see speech.
package vad

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"
)

// Sensitivity thresholds, expressed as RMS amplitude over int16 samples.
// Higher sensitivity means a lower bar for classifying a block as speech.
const (
	thresholdLow    = 1200.0
	thresholdMedium = 600.0
	thresholdHigh   = 250.0
)

// EnergyVAD classifies a PCM block as speech when its RMS energy exceeds
// the configured threshold. Cheap enough to run inline on every 32 ms
// block without a worker pool.
type EnergyVAD struct {
	// threshold stores the float64 bits so SetSensitivity can be called
	// concurrently with IsSpeech.
	threshold atomic.Uint64
}

// NewEnergyVAD returns a detector at the given sensitivity (low, medium
// or high).
func NewEnergyVAD(sensitivity string) (*EnergyVAD, error) {
	v := &EnergyVAD{}
	if err := v.SetSensitivity(sensitivity); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *EnergyVAD) SetSensitivity(level string) error {
	var threshold float64
	switch level {
	case "low":
		threshold = thresholdLow
	case "medium":
		threshold = thresholdMedium
	case "high":
		threshold = thresholdHigh
	default:
		return fmt.Errorf("unknown vad sensitivity %q", level)
	}
	v.threshold.Store(math.Float64bits(threshold))
	return nil
}

// IsSpeech reports whether the s16le block carries speech energy. Blocks
// with a trailing odd byte ignore it.
func (v *EnergyVAD) IsSpeech(block []byte) bool {
	samples := len(block) / 2
	if samples == 0 {
		return false
	}
	var sum float64
	for i := 0; i < samples; i++ {
		s := int16(binary.LittleEndian.Uint16(block[i*2:]))
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(samples))
	return rms >= math.Float64frombits(v.threshold.Load())
}
