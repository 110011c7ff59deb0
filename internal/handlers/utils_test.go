package handlers

import (
	"math"
	"testing"
)

func TestIntArg(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		expected  int
		wantOK    bool
		wantError bool
	}{
		{name: "missing", value: nil},
		{name: "whole float", value: float64(42), expected: 42, wantOK: true},
		{name: "negative float", value: float64(-3), expected: -3, wantOK: true},
		{name: "int", value: 7, expected: 7, wantOK: true},
		{name: "largest exact float", value: float64(1 << 53), expected: 1 << 53, wantOK: true},
		{name: "fraction", value: 2.5, wantError: true},
		{name: "beyond exact range", value: float64(1<<53) * 2, wantError: true},
		{name: "huge negative", value: -math.MaxFloat64, wantError: true},
		{name: "string", value: "12", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.value != nil {
				args["n"] = tt.value
			}

			got, ok, err := intArg(args, "n")
			if tt.wantError {
				if err == nil {
					t.Errorf("Expected error for %v, got %d", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok != tt.wantOK || got != tt.expected {
				t.Errorf("Expected (%d, %v), got (%d, %v)", tt.expected, tt.wantOK, got, ok)
			}
		})
	}
}

func TestUintArg_RejectsNegative(t *testing.T) {
	if _, _, err := uintArg(map[string]interface{}{"seed": float64(-1)}, "seed"); err == nil {
		t.Error("Expected error for a negative seed")
	}
	seed, ok, err := uintArg(map[string]interface{}{"seed": float64(1 << 40)}, "seed")
	if err != nil || !ok || seed != 1<<40 {
		t.Errorf("Expected seed 2^40, got %d (ok=%v, err=%v)", seed, ok, err)
	}
}
