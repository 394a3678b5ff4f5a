// Package shadow maintains the cascaded volume map: nested per-level boxes
// around the observer that shadow cascades are rendered for.
package shadow

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// ErrInvalidCascade is returned for unusable cascade settings or ranges.
var ErrInvalidCascade = errors.New("shadow: invalid cascade")

var cascadeUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shadow_cascade_updates_total",
	Help: "The number of cascade layer box refreshes.",
}, []string{"layer"})

// CascadeSettings configures a CascadedVolumeMap.
type CascadeSettings struct {
	// Layers is the number of cascades.
	Layers int `yaml:"layers"`

	// VolumeExtensionMul oversizes refreshed boxes so the observer can move
	// before the next refresh. Greater than 1.
	VolumeExtensionMul float32 `yaml:"volume_extension_mul"`

	// AllowedUpdatesPerFrame is the refresh budget added each frame. May be
	// fractional.
	AllowedUpdatesPerFrame float32 `yaml:"allowed_updates_per_frame"`

	// MovementSmoothing weighs the previous average movement direction
	// against the latest one.
	MovementSmoothing float32 `yaml:"movement_smoothing"`
}

// DefaultCascadeSettings returns the default cascade configuration.
func DefaultCascadeSettings() CascadeSettings {
	return CascadeSettings{
		Layers:                 4,
		VolumeExtensionMul:     1.5,
		AllowedUpdatesPerFrame: 1,
		MovementSmoothing:      0.8,
	}
}

// Validate checks the settings.
func (s CascadeSettings) Validate() error {
	switch {
	case s.Layers < 1:
		return fmt.Errorf("%w: %d layers", ErrInvalidCascade, s.Layers)
	case !(s.VolumeExtensionMul > 1):
		return fmt.Errorf("%w: volume extension %g must exceed 1", ErrInvalidCascade, s.VolumeExtensionMul)
	case !(s.AllowedUpdatesPerFrame > 0):
		return fmt.Errorf("%w: updates per frame %g", ErrInvalidCascade, s.AllowedUpdatesPerFrame)
	case !(s.MovementSmoothing >= 0 && s.MovementSmoothing <= 1):
		return fmt.Errorf("%w: movement smoothing %g not in [0, 1]", ErrInvalidCascade, s.MovementSmoothing)
	}
	return nil
}

// Layer is one cascade: the box its shadow content was last rendered for.
type Layer struct {
	m     *CascadedVolumeMap
	index int
	label string

	box     math.Box[float32]
	valid   bool
	lastPos math.Vec3[float32]
	avgDir  math.Vec3[float32]
	updates uint64
}

// Box returns the current layer box.
func (l *Layer) Box() math.Box[float32] { return l.box }

// Valid reports whether the layer has been computed at least once.
func (l *Layer) Valid() bool { return l.valid }

// Updates returns how often the layer box was refreshed.
func (l *Layer) Updates() uint64 { return l.updates }

// Update refreshes the layer box for an observer seeing visibilityRange
// far, unless the current box still covers that region and force is false.
// parent, the next coarser layer, bounds the predictive extension; it may
// be nil. It reports whether the box changed.
func (l *Layer) Update(observer math.Vec3[float32], visibilityRange float32, parent *Layer, force bool) bool {
	world := l.m.world
	ext := math.V3(visibilityRange, visibilityRange, visibilityRange)
	required := math.Box[float32]{Min: observer.Sub(ext), Max: observer.Add(ext)}.Intersect(world)

	if !force && l.valid && l.box.Contains(required) {
		return false
	}

	s := l.m.settings
	if l.valid {
		if move := observer.Sub(l.lastPos); move.LengthSq() > 0 {
			avg := l.avgDir.Scale(s.MovementSmoothing).Add(move.Normalize().Scale(1 - s.MovementSmoothing))
			if avg.LengthSq() > 1e-12 {
				l.avgDir = avg.Normalize()
			} else {
				l.avgDir = math.Vec3[float32]{}
			}
		}
	}

	predicted := observer.Add(l.avgDir.Scale(visibilityRange * (s.VolumeExtensionMul - 1)))
	half := visibilityRange * s.VolumeExtensionMul
	hext := math.V3(half, half, half)
	box := math.Box[float32]{Min: predicted.Sub(hext), Max: predicted.Add(hext)}
	if parent != nil && parent.valid {
		box = box.Intersect(parent.box)
	}
	box = box.Intersect(world)

	l.box = box.Union(required)
	l.lastPos = observer
	l.valid = true
	l.updates++
	cascadeUpdates.WithLabelValues(l.label).Inc()
	return true
}

// CascadedVolumeMap keeps one box per cascade around a moving observer and
// refreshes them lazily, coarsest first, under a per-frame budget.
type CascadedVolumeMap struct {
	settings CascadeSettings
	world    math.Box[float32]
	layers   []*Layer
	budget   float32
	log      *zap.Logger
}

// NewCascadedVolumeMap returns a map whose boxes never leave world.
func NewCascadedVolumeMap(s CascadeSettings, world math.Box[float32], log *zap.Logger) (*CascadedVolumeMap, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if world.Empty() {
		return nil, fmt.Errorf("%w: empty world box", ErrInvalidCascade)
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &CascadedVolumeMap{
		settings: s,
		world:    world,
		layers:   make([]*Layer, s.Layers),
		log:      log.Named("cascade"),
	}
	for i := range m.layers {
		m.layers[i] = &Layer{m: m, index: i, label: strconv.Itoa(i)}
	}
	return m, nil
}

// Layers returns the cascades, finest first.
func (m *CascadedVolumeMap) Layers() []*Layer { return m.layers }

// Layer returns cascade i.
func (m *CascadedVolumeMap) Layer(i int) *Layer { return m.layers[i] }

// Budget returns the remaining refresh budget.
func (m *CascadedVolumeMap) Budget() float32 { return m.budget }

// World returns the box all layers are clipped to.
func (m *CascadedVolumeMap) World() math.Box[float32] { return m.world }

func (m *CascadedVolumeMap) checkRanges(ranges []float32) error {
	if len(ranges) != len(m.layers) {
		return fmt.Errorf("%w: %d ranges for %d layers", ErrInvalidCascade, len(ranges), len(m.layers))
	}
	for i, r := range ranges {
		if !(r > 0) || math32.IsInf(r, 0) {
			return fmt.Errorf("%w: range %d is %g", ErrInvalidCascade, i, r)
		}
		if i > 0 && !(r > ranges[i-1]) {
			return fmt.Errorf("%w: ranges not increasing at %d", ErrInvalidCascade, i)
		}
	}
	return nil
}

// Update refreshes stale layers for this frame, coarsest first, while the
// budget lasts. It returns the number of refreshed layers, at most
// ceil(AllowedUpdatesPerFrame).
func (m *CascadedVolumeMap) Update(observer math.Vec3[float32], ranges []float32) (int, error) {
	if err := m.checkRanges(ranges); err != nil {
		return 0, err
	}
	allowed := m.settings.AllowedUpdatesPerFrame
	m.budget = math32.Min(m.budget+allowed, allowed)

	refreshed := 0
	for i := len(m.layers) - 1; i >= 0 && m.budget > 0; i-- {
		if m.layers[i].Update(observer, ranges[i], m.parent(i), false) {
			m.budget--
			refreshed++
			m.log.Debug("cascade refreshed",
				zap.Int("layer", i),
				zap.Float32("budget", m.budget))
		}
	}
	return refreshed, nil
}

// ForceUpdateAll refreshes every layer regardless of budget, for the first
// frame or after the observer teleported.
func (m *CascadedVolumeMap) ForceUpdateAll(observer math.Vec3[float32], ranges []float32) error {
	if err := m.checkRanges(ranges); err != nil {
		return err
	}
	for i := len(m.layers) - 1; i >= 0; i-- {
		m.layers[i].Update(observer, ranges[i], m.parent(i), true)
	}
	m.log.Debug("cascades force updated", zap.Int("layers", len(m.layers)))
	return nil
}

func (m *CascadedVolumeMap) parent(i int) *Layer {
	if i+1 < len(m.layers) {
		return m.layers[i+1]
	}
	return nil
}

// LightMatrix returns the directional light matrix for cascade i.
func (m *CascadedVolumeMap) LightMatrix(i int, lightDir math.Vec3[float32]) math.Mat4[float32] {
	return LightMatrix(lightDir.Normalize(), m.layers[i].box)
}
