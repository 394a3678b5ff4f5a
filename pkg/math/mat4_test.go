package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity[float32]()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate[float64](1, 2, 3)
	result := m.Mul(Identity[float64]())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate[float32](10, 20, 30)
	got := m.TransformPoint(V3[float32](1, 2, 3))

	want := V3[float32](11, 22, 33)
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective[float32](float32(math.Pi/4), 1, 0.1, 100)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := V3(3.0, 4.0, 5.0)
	m := LookAt(eye, V3(0.0, 0.0, 0.0), V3(0.0, 1.0, 0.0))

	p := m.TransformPoint(eye)
	if p.Length() > 1e-9 {
		t.Errorf("eye should map to origin, got %v", p)
	}
}

func TestFrustumClassification(t *testing.T) {
	// Camera at origin looking down -Z.
	view := LookAt(V3(0.0, 0.0, 0.0), V3(0.0, 0.0, -1.0), V3(0.0, 1.0, 0.0))
	proj := Perspective(math.Pi/2, 1.0, 1.0, 100.0)
	f := FrustumFromMatrix(proj.Mul(view))

	tests := []struct {
		name string
		box  Box[float64]
		want Containment
	}{
		{"in front", NewBox(V3(-1.0, -1.0, -11.0), V3(1.0, 1.0, -9.0)), Inside},
		{"behind", NewBox(V3(-1.0, -1.0, 5.0), V3(1.0, 1.0, 9.0)), Outside},
		{"beyond far", NewBox(V3(-1.0, -1.0, -300.0), V3(1.0, 1.0, -200.0)), Outside},
		{"crossing near plane", NewBox(V3(-1.0, -1.0, -5.0), V3(1.0, 1.0, 5.0)), Intersects},
		{"left of frustum", NewBox(V3(-50.0, -1.0, -11.0), V3(-20.0, 1.0, -9.0)), Outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.BoxInFrustum(tt.box); got != tt.want {
				t.Errorf("BoxInFrustum = %v, want %v", got, tt.want)
			}
		})
	}
}
