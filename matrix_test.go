package batch2d

import (
	"math"
	"testing"
)

func pointsClose(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -5), Pt(1, 1), Pt(11, -4)},
		{"scale", Scale(2, 3), Pt(1, 1), Pt(2, 3)},
		{"rotate 90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		{"translate after scale", Translate(10, 0).Multiply(Scale(2, 2)), Pt(1, 1), Pt(12, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.in)
			if !pointsClose(got, tt.want) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformVectorIgnoresTranslation(t *testing.T) {
	m := Translate(100, 100).Multiply(Scale(2, 2))
	got := m.TransformVector(Pt(1, 1))
	if !pointsClose(got, Pt(2, 2)) {
		t.Errorf("TransformVector = %v, want (2,2)", got)
	}
}

func TestMeanScale(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want float64
	}{
		{"identity", Identity(), 1},
		{"uniform", Scale(3, 3), 3},
		{"non-uniform", Scale(2, 8), 4},
		{"rotation", Rotate(1.2), 1},
		{"translation", Translate(5, 5), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.MeanScale(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MeanScale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if Translate(1, 0).IsIdentity() {
		t.Error("Translate(1,0).IsIdentity() = true")
	}
}

func TestOrtho(t *testing.T) {
	m := Ortho(800, 600)
	// Top-left pixel maps to clip (-1, 1); bottom-right to (1, -1).
	clip := func(x, y float32) (float32, float32) {
		return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
	}
	if x, y := clip(0, 0); x != -1 || y != 1 {
		t.Errorf("clip(0,0) = (%v,%v), want (-1,1)", x, y)
	}
	if x, y := clip(800, 600); math.Abs(float64(x-1)) > 1e-6 || math.Abs(float64(y+1)) > 1e-6 {
		t.Errorf("clip(800,600) = (%v,%v), want (1,-1)", x, y)
	}
}
