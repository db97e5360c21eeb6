package vad

import (
	"encoding/binary"
	"testing"
)

func pcmBlock(amplitude int16, samples int) []byte {
	block := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(block[i*2:], uint16(amplitude))
	}
	return block
}

func TestEnergyVADClassification(t *testing.T) {
	v, err := NewEnergyVAD("medium")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsSpeech(pcmBlock(10, 512)) {
		t.Fatal("near-silence classified as speech")
	}
	if !v.IsSpeech(pcmBlock(5000, 512)) {
		t.Fatal("loud block classified as silence")
	}
	if v.IsSpeech(nil) {
		t.Fatal("empty block classified as speech")
	}
}

func TestEnergyVADSensitivityOrdering(t *testing.T) {
	quiet := pcmBlock(400, 512)

	low, _ := NewEnergyVAD("low")
	high, _ := NewEnergyVAD("high")
	if low.IsSpeech(quiet) {
		t.Fatal("low sensitivity should reject a quiet block")
	}
	if !high.IsSpeech(quiet) {
		t.Fatal("high sensitivity should accept a quiet block")
	}
}

func TestEnergyVADRejectsUnknownSensitivity(t *testing.T) {
	if _, err := NewEnergyVAD("extreme"); err == nil {
		t.Fatal("expected error for unknown sensitivity")
	}
	v, _ := NewEnergyVAD("medium")
	if err := v.SetSensitivity(""); err == nil {
		t.Fatal("expected error for empty sensitivity")
	}
}
