package shadow

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

var testRanges = []float32{10, 20, 40, 80}

func testWorld() math.Box[float32] {
	return math.Box[float32]{Min: math.V3[float32](-1000, -50, -1000), Max: math.V3[float32](1000, 50, 1000)}
}

func newTestMap(t *testing.T, allowed float32) *CascadedVolumeMap {
	t.Helper()
	s := DefaultCascadeSettings()
	s.AllowedUpdatesPerFrame = allowed
	m, err := NewCascadedVolumeMap(s, testWorld(), nil)
	if err != nil {
		t.Fatalf("NewCascadedVolumeMap() error = %v", err)
	}
	return m
}

func TestCascadeSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CascadeSettings)
	}{
		{"no layers", func(s *CascadeSettings) { s.Layers = 0 }},
		{"extension one", func(s *CascadeSettings) { s.VolumeExtensionMul = 1 }},
		{"no budget", func(s *CascadeSettings) { s.AllowedUpdatesPerFrame = 0 }},
		{"smoothing above one", func(s *CascadeSettings) { s.MovementSmoothing = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultCascadeSettings()
			tt.modify(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidCascade) {
				t.Errorf("Validate() = %v, want ErrInvalidCascade", err)
			}
		})
	}

	if err := DefaultCascadeSettings().Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
}

func TestCascadeRejectsBadRanges(t *testing.T) {
	m := newTestMap(t, 1)
	for _, r := range [][]float32{{10, 20, 40}, {10, 10, 40, 80}, {0, 20, 40, 80}, {40, 30, 20, 10}} {
		if _, err := m.Update(math.Vec3[float32]{}, r); !errors.Is(err, ErrInvalidCascade) {
			t.Errorf("Update(%v) error = %v, want ErrInvalidCascade", r, err)
		}
	}
}

func TestCascadeRefreshesCoarsestFirst(t *testing.T) {
	m := newTestMap(t, 1)
	obs := math.V3[float32](0, 0, 0)
	for want := 3; want >= 0; want-- {
		n, err := m.Update(obs, testRanges)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("frame for layer %d refreshed %d layers, want 1", want, n)
		}
		if !m.Layer(want).Valid() {
			t.Errorf("layer %d not refreshed", want)
		}
		for i := 0; i < want; i++ {
			if m.Layer(i).Valid() {
				t.Errorf("layer %d refreshed before layer %d", i, want)
			}
		}
	}

	// Everything covered now.
	n, _ := m.Update(obs, testRanges)
	if n != 0 {
		t.Errorf("refreshed %d layers for a static observer", n)
	}
}

func TestCascadeBudget(t *testing.T) {
	for _, allowed := range []float32{0.25, 0.5, 1, 1.5, 2, 3.5} {
		m := newTestMap(t, allowed)
		limit := int(math32.Ceil(allowed))
		rng := rand.New(rand.NewSource(42))
		obs := math.V3[float32](0, 0, 0)

		total := 0
		for frame := 0; frame < 2000; frame++ {
			step := math.V3(rng.Float32()*8-4, 0, rng.Float32()*8-4)
			if frame%97 == 0 {
				step = math.V3[float32](150, 0, -120)
			}
			obs = obs.Add(step)
			n, err := m.Update(obs, testRanges)
			if err != nil {
				t.Fatal(err)
			}
			if n > limit {
				t.Fatalf("allowed %g: frame %d refreshed %d layers, limit %d", allowed, frame, n, limit)
			}
			total += n
		}
		if float32(total) > allowed*2000+1 {
			t.Errorf("allowed %g: %d refreshes in 2000 frames", allowed, total)
		}
	}
}

func TestLayerNotRefreshedWhenCovered(t *testing.T) {
	m := newTestMap(t, 1)
	obs := math.V3[float32](100, 0, 100)
	if err := m.ForceUpdateAll(obs, testRanges); err != nil {
		t.Fatal(err)
	}

	// The boxes are VolumeExtensionMul times larger than required, so a
	// small move stays covered.
	moved := obs.Add(math.V3[float32](2, 0, -2))
	for i, l := range m.Layers() {
		before := l.Box()
		if l.Update(moved, testRanges[i], m.parent(i), false) {
			t.Errorf("layer %d refreshed although covered", i)
		}
		if l.Box() != before {
			t.Errorf("layer %d box changed", i)
		}
	}

	// Forcing always refreshes.
	if !m.Layer(0).Update(moved, testRanges[0], m.Layer(1), true) {
		t.Error("forced update returned false")
	}
}

func TestLayerCoversRequiredBox(t *testing.T) {
	m := newTestMap(t, 4)
	obs := math.V3[float32](0, 0, 0)
	for frame := 0; frame < 200; frame++ {
		obs = obs.Add(math.V3[float32](3, 0, 1))
		if _, err := m.Update(obs, testRanges); err != nil {
			t.Fatal(err)
		}
		for i, l := range m.Layers() {
			r := testRanges[i]
			need := math.Box[float32]{
				Min: obs.Sub(math.V3(r, r, r)),
				Max: obs.Add(math.V3(r, r, r)),
			}.Intersect(m.World())
			if !l.Box().Contains(need) {
				t.Fatalf("frame %d layer %d box %v misses %v", frame, i, l.Box(), need)
			}
			if !m.World().Contains(l.Box()) {
				t.Fatalf("frame %d layer %d box %v leaves the world", frame, i, l.Box())
			}
		}
	}
}

func TestLayerPredictsMovement(t *testing.T) {
	m := newTestMap(t, 1)
	l := m.Layer(0)
	obs := math.V3[float32](0, 0, 0)
	l.Update(obs, 10, nil, true)
	for i := 0; i < 20; i++ {
		obs = obs.Add(math.V3[float32](4, 0, 0))
		l.Update(obs, 10, nil, false)
	}
	l.Update(obs, 10, nil, true)
	if c := l.Box().Center(); c.X <= obs.X {
		t.Errorf("box center %v not ahead of observer %v", c, obs)
	}
}

func TestCascadeUpdateMetric(t *testing.T) {
	m := newTestMap(t, 1)
	before := testutil.ToFloat64(cascadeUpdates.WithLabelValues("3"))
	if _, err := m.Update(math.Vec3[float32]{}, testRanges); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(cascadeUpdates.WithLabelValues("3")) - before; got != 1 {
		t.Errorf("layer 3 updates = %v, want 1", got)
	}
}

func TestLightMatrixEnclosesBox(t *testing.T) {
	box := math.Box[float32]{Min: math.V3[float32](0, 0, 0), Max: math.V3[float32](10, 5, 10)}
	for _, dir := range []math.Vec3[float32]{
		math.V3[float32](0.3, 1, 0.2).Normalize(),
		math.V3[float32](0, 1, 0),
		math.V3[float32](1, 0.1, 0).Normalize(),
	} {
		m := LightMatrix(dir, box)
		for _, c := range box.Corners() {
			p := m.TransformPoint(c)
			if math32.Abs(p.X) > 1 || math32.Abs(p.Y) > 1 || math32.Abs(p.Z) > 1 {
				t.Errorf("light %v: corner %v maps to %v outside clip space", dir, c, p)
			}
		}
	}
}
