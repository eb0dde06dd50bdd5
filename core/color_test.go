package core

import "testing"

func TestHex(t *testing.T) {
	tests := []struct {
		in     string
		want   RGBA
		wantOK bool
	}{
		{"#ff0000", RGB(1, 0, 0), true},
		{"00ff00", RGB(0, 1, 0), true},
		{"#00f", RGB(0, 0, 1), true},
		{"#ffffff00", RGBA2(1, 1, 1, 0), true},
		{"#zzz", Black, false},
		{"12345", Black, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Hex(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Hex(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Hex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToByte(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{2, 255},
		{100.0 / 255, 100},
	}
	for _, tt := range tests {
		if got := ToByte(tt.in); got != tt.want {
			t.Errorf("ToByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
