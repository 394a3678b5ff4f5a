package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3[float32]{1, 0, 0}
	y := Vec3[float32]{0, 1, 0}
	got := x.Cross(y)
	want := Vec3[float32]{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3[float64]{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3[float32]{3, 4, 0}
	l := v.Normalize().Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if z := (Vec3[float32]{}).Normalize(); z != (Vec3[float32]{}) {
		t.Errorf("zero vector normalized to %v", z)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := V3(1.0, 5.0, -2.0)
	b := V3(3.0, -1.0, 0.0)
	if got := a.Min(b); got != V3(1.0, -1.0, -2.0) {
		t.Errorf("Min = %v", got)
	}
	if got := a.Max(b); got != V3(3.0, 5.0, 0.0) {
		t.Errorf("Max = %v", got)
	}
}

func TestBoxContains(t *testing.T) {
	outer := NewBox(V3(0.0, 0.0, 0.0), V3(10.0, 10.0, 10.0))
	inner := NewBox(V3(2.0, 2.0, 2.0), V3(3.0, 3.0, 3.0))
	if !outer.Contains(inner) {
		t.Error("outer should contain inner")
	}
	if inner.Contains(outer) {
		t.Error("inner should not contain outer")
	}
	empty := Box[float64]{Min: V3(1.0, 1.0, 1.0), Max: V3(0.0, 0.0, 0.0)}
	if !inner.Contains(empty) {
		t.Error("every box contains the empty box")
	}
}

func TestBoxSphere(t *testing.T) {
	b := NewBox(V3(0.0, 0.0, 0.0), V3(10.0, 1.0, 10.0))
	tests := []struct {
		name   string
		center Vec3[float64]
		radius float64
		want   bool
	}{
		{"inside", V3(5.0, 0.5, 5.0), 0.1, true},
		{"touching side", V3(15.0, 0.5, 5.0), 5, true},
		{"near corner outside", V3(13.0, 0.5, 14.0), 4.9, false},
		{"near corner inside", V3(13.0, 0.5, 14.0), 5.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.IntersectsSphereSq(tt.center, tt.radius*tt.radius); got != tt.want {
				t.Errorf("IntersectsSphereSq = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoxUnionIntersect(t *testing.T) {
	a := NewBox(V3(0.0, 0.0, 0.0), V3(2.0, 2.0, 2.0))
	b := NewBox(V3(1.0, 1.0, 1.0), V3(3.0, 3.0, 3.0))
	if got := a.Union(b); got != NewBox(V3(0.0, 0.0, 0.0), V3(3.0, 3.0, 3.0)) {
		t.Errorf("Union = %v", got)
	}
	if got := a.Intersect(b); got != NewBox(V3(1.0, 1.0, 1.0), V3(2.0, 2.0, 2.0)) {
		t.Errorf("Intersect = %v", got)
	}
	c := NewBox(V3(5.0, 5.0, 5.0), V3(6.0, 6.0, 6.0))
	if !a.Intersect(c).Empty() {
		t.Error("disjoint boxes should have an empty intersection")
	}
}
