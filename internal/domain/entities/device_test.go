package entities

import "testing"

func TestParseAudioDevice(t *testing.T) {
	cases := []struct {
		in        string
		name      string
		direction DeviceDirection
	}{
		{"Built-in Microphone (input)", "Built-in Microphone", DeviceDirectionInput},
		{"BlackHole 2ch (output)", "BlackHole 2ch", DeviceDirectionOutput},
		{"  padded (input)  ", "padded", DeviceDirectionInput},
	}
	for _, tc := range cases {
		d, err := ParseAudioDevice(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if d.Name != tc.name || d.Direction != tc.direction {
			t.Fatalf("%q: got %+v", tc.in, d)
		}
		if d.String() != d.Name+" ("+string(d.Direction)+")" {
			t.Fatalf("%q: String round trip mismatch %q", tc.in, d.String())
		}
	}
}

func TestParseAudioDeviceRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "no direction", "(input)", "mic (speaker)"} {
		if _, err := ParseAudioDevice(in); err == nil {
			t.Fatalf("%q should not parse", in)
		}
	}
}

func TestControlState(t *testing.T) {
	cs := NewControlState()
	if !cs.IsRunning() {
		t.Fatal("new control state must start running")
	}
	cs.Set(DeviceStatePaused)
	if cs.IsRunning() || cs.Get() != DeviceStatePaused {
		t.Fatalf("unexpected state %v", cs.Get())
	}
	cs.Set(DeviceStateStopped)
	if cs.Get().String() != "stopped" {
		t.Fatalf("unexpected state string %q", cs.Get().String())
	}
}
