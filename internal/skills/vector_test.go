package skills

import (
	"math"
	"testing"
)

func TestPackUnpackVector(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{name: "typical vector", input: []float32{0.1, -0.2, 0.3}},
		{name: "empty vector", input: []float32{}},
		{name: "single element", input: []float32{1.5}},
		{name: "extreme values", input: []float32{math.MaxFloat32, -math.MaxFloat32, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackVector(tt.input)
			if len(packed) != 4*len(tt.input) {
				t.Fatalf("expected %d bytes, got %d", 4*len(tt.input), len(packed))
			}

			got, err := UnpackVector(packed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.input) {
				t.Fatalf("length mismatch: got %d, want %d", len(got), len(tt.input))
			}
			for i := range got {
				if got[i] != tt.input[i] {
					t.Errorf("value mismatch at %d: got %f, want %f", i, got[i], tt.input[i])
				}
			}
		})
	}
}

func TestUnpackVector_InvalidLength(t *testing.T) {
	if _, err := UnpackVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not a multiple of 4")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1.0, 2.0, 3.0},
			b:        []float32{1.0, 2.0, 3.0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1.0, 0.0},
			b:        []float32{0.0, 1.0},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1.0, 2.0},
			b:        []float32{-1.0, -2.0},
			expected: -1.0,
		},
		{
			name:     "zero vector is defined as 0",
			a:        []float32{0.0, 0.0, 0.0},
			b:        []float32{1.0, 2.0, 3.0},
			expected: 0.0,
		},
		{
			name:     "both zero",
			a:        []float32{0.0, 0.0},
			b:        []float32{0.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "length mismatch",
			a:        []float32{1.0, 2.0},
			b:        []float32{1.0, 2.0, 3.0},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatal("similarity must never be NaN")
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.expected)
			}
		})
	}
}
