package loop

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodim/internal/config"
	"autodim/internal/overlay"
	"autodim/internal/sampler"
	"autodim/internal/store"
	"autodim/internal/transition"
)

type fixture struct {
	store   *store.Store
	surface *sampler.StaticSurface
	overlay *overlay.Memory
	ctrl    *Controller
}

// newFixture builds a controller over a real store and an in-memory
// surface. Smoothing is disabled unless the snapshot says otherwise, so
// level changes land synchronously.
func newFixture(t *testing.T, snap config.Snapshot, fill string) *fixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "autodim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SaveConfig(snap))

	surface := sampler.NewStaticSurface(1000, 800, fill)
	mem := overlay.NewMemory()

	ctrl := New(
		Config{SampleInterval: time.Minute, ScrollDebounce: 20 * time.Millisecond},
		Deps{
			Hostname: "example.com",
			Sampler:  sampler.New(surface, sampler.DefaultConfig()),
			Engine:   transition.NewEngine(transition.Options{}),
			Overlay:  mem,
			Config:   s,
			Sites:    s,
			Logger:   zerolog.Nop(),
		},
	)
	t.Cleanup(ctrl.Stop)

	return &fixture{store: s, surface: surface, overlay: mem, ctrl: ctrl}
}

func baseSnapshot() config.Snapshot {
	return config.Snapshot{
		Enabled:             true,
		DimIntensity:        0.5,
		BrightnessThreshold: 0.6,
		DynamicMode:         true,
	}
}

func (f *fixture) opacity(t *testing.T) float64 {
	t.Helper()
	got, ok := f.overlay.Opacity(f.ctrl.OverlayID())
	require.True(t, ok, "overlay must be attached")
	return got
}

func TestStartupCycleDimsBrightPage(t *testing.T) {
	// rgb(230,230,230) has brightness 230/255 ≈ 0.902; with threshold 0.6 and
	// intensity 0.5 the dynamic target is 0.5*(0.902-0.6)/0.4 ≈ 0.377.
	f := newFixture(t, baseSnapshot(), "rgb(230, 230, 230)")
	require.NoError(t, f.ctrl.Start())

	assert.InDelta(t, 0.377, f.opacity(t), 0.01)

	st, ok, err := f.store.LoadSiteState("example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.377, st.LastDimLevel, 0.01)
	require.NotNil(t, st.LastBrightness)
	assert.InDelta(t, 0.902, *st.LastBrightness, 0.01)
}

func TestDarkPageNeverDims(t *testing.T) {
	f := newFixture(t, baseSnapshot(), "rgb(20, 20, 20)")
	require.NoError(t, f.ctrl.Start())

	assert.Equal(t, 0.0, f.opacity(t))
}

func TestBlacklistDrivesToZero(t *testing.T) {
	f := newFixture(t, baseSnapshot(), "rgb(230, 230, 230)")
	require.NoError(t, f.ctrl.Start())
	require.Greater(t, f.opacity(t), 0.0)

	snap := baseSnapshot()
	snap.Blacklist = []string{"example.com"}
	require.NoError(t, f.store.SaveConfig(snap))
	f.ctrl.OnConfigUpdated()

	assert.Equal(t, 0.0, f.opacity(t))
	status := f.ctrl.Status()
	assert.True(t, status.IsBlacklisted)
}

func TestEMASmoothsReadings(t *testing.T) {
	f := newFixture(t, baseSnapshot(), "rgb(255, 255, 255)")
	require.NoError(t, f.ctrl.Start())

	// First sample seeds the EMA: smoothed == 1.0.
	status := f.ctrl.Status()
	require.NotNil(t, status.LastBrightness)
	assert.InDelta(t, 1.0, *status.LastBrightness, 1e-9)

	// Content goes dark; one cycle moves the EMA to 0.3*0 + 0.7*1 = 0.7.
	f.surface.SetFill("rgb(0, 0, 0)")
	f.ctrl.OnVisible()

	status = f.ctrl.Status()
	require.NotNil(t, status.LastBrightness)
	assert.InDelta(t, 0.7, *status.LastBrightness, 1e-9)
}

func TestApplyThresholdSuppressesSmallChanges(t *testing.T) {
	// Threshold 0 and intensity 1 make the target track brightness directly.
	snap := baseSnapshot()
	snap.BrightnessThreshold = 0
	snap.DimIntensity = 1

	f := newFixture(t, snap, "rgb(128, 128, 128)")
	require.NoError(t, f.ctrl.Start())

	first := f.opacity(t)
	assert.InDelta(t, 128.0/255.0, first, 1e-9)

	// New smoothed value is 0.3*(138/255) + 0.7*(128/255), about 0.012 above
	// the applied level: below the 0.03 apply threshold, so nothing moves.
	f.surface.SetFill("rgb(138, 138, 138)")
	f.ctrl.OnVisible()

	assert.InDelta(t, first, f.opacity(t), 1e-9)
}

func TestScrollDebounce(t *testing.T) {
	f := newFixture(t, baseSnapshot(), "rgb(20, 20, 20)")
	require.NoError(t, f.ctrl.Start())
	require.Equal(t, 0.0, f.opacity(t))

	f.surface.SetFill("rgb(255, 255, 255)")
	f.ctrl.OnScroll()
	f.ctrl.OnScroll() // resets the window

	// EMA: 0.3*1.0 + 0.7*(20/255) ≈ 0.355 — below threshold, but a second
	// settle would dim. One debounced cycle is enough to see the EMA move.
	require.Eventually(t, func() bool {
		s := f.ctrl.Status()
		return s.LastBrightness != nil && *s.LastBrightness > 0.3
	}, time.Second, 5*time.Millisecond)
}

func TestManualDimBypassesPolicy(t *testing.T) {
	snap := baseSnapshot()
	snap.Blacklist = []string{"example.com"}
	f := newFixture(t, snap, "rgb(20, 20, 20)")
	require.NoError(t, f.ctrl.Start())

	f.ctrl.ManualDim(0.8)
	assert.Equal(t, 0.8, f.opacity(t))

	status := f.ctrl.Status()
	assert.Equal(t, 0.8, status.CurrentDimLevel)
	assert.Equal(t, 0.8, status.TargetDimLevel)
}

func TestWhitelistDimsDarkPage(t *testing.T) {
	snap := baseSnapshot()
	snap.Whitelist = []string{"example.com"}
	f := newFixture(t, snap, "rgb(0, 0, 0)")
	require.NoError(t, f.ctrl.Start())

	assert.InDelta(t, 0.5, f.opacity(t), 1e-9)
	assert.True(t, f.ctrl.Status().IsWhitelisted)
}

func TestRestorePersistedLevel(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "autodim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SaveConfig(baseSnapshot()))

	// A fresh persisted state within the apply threshold of the first cycle's
	// target keeps the restored level in place.
	b := 0.9
	require.NoError(t, s.SaveSiteState("example.com", store.SiteState{
		LastDimLevel:   0.4,
		LastBrightness: &b,
	}))

	surface := sampler.NewStaticSurface(1000, 800, "rgb(230, 230, 230)")
	mem := overlay.NewMemory()
	ctrl := New(
		Config{SampleInterval: time.Minute},
		Deps{
			Hostname: "example.com",
			Sampler:  sampler.New(surface, sampler.DefaultConfig()),
			Engine:   transition.NewEngine(transition.Options{}),
			Overlay:  mem,
			Config:   s,
			Sites:    s,
			Logger:   zerolog.Nop(),
		},
	)
	t.Cleanup(ctrl.Stop)
	require.NoError(t, ctrl.Start())

	got, ok := mem.Opacity(ctrl.OverlayID())
	require.True(t, ok)
	assert.InDelta(t, 0.4, got, 1e-9)

	// The persisted brightness does not seed the EMA: the first sample
	// stands alone.
	status := ctrl.Status()
	require.NotNil(t, status.LastBrightness)
	assert.InDelta(t, 230.0/255.0, *status.LastBrightness, 1e-9)
}

type spySiteStore struct {
	saves int
	last  store.SiteState
}

func (s *spySiteStore) LoadSiteState(string) (store.SiteState, bool, error) {
	return store.SiteState{}, false, nil
}

func (s *spySiteStore) SaveSiteState(_ string, st store.SiteState) error {
	s.saves++
	s.last = st
	return nil
}

func TestPersistGatedByApplyThreshold(t *testing.T) {
	// Threshold 0 and intensity 1 make the target track brightness directly.
	snap := baseSnapshot()
	snap.BrightnessThreshold = 0
	snap.DimIntensity = 1

	s, err := store.Open(filepath.Join(t.TempDir(), "autodim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SaveConfig(snap))

	spy := &spySiteStore{}
	surface := sampler.NewStaticSurface(1000, 800, "rgb(128, 128, 128)")
	ctrl := New(
		Config{SampleInterval: time.Minute},
		Deps{
			Hostname: "example.com",
			Sampler:  sampler.New(surface, sampler.DefaultConfig()),
			Engine:   transition.NewEngine(transition.Options{}),
			Overlay:  overlay.NewMemory(),
			Config:   s,
			Sites:    spy,
			Logger:   zerolog.Nop(),
		},
	)
	t.Cleanup(ctrl.Stop)
	require.NoError(t, ctrl.Start())

	require.Equal(t, 1, spy.saves)
	require.NotNil(t, spy.last.LastBrightness)
	assert.InDelta(t, 128.0/255.0, *spy.last.LastBrightness, 1e-9)
	assert.InDelta(t, 128.0/255.0, spy.last.LastDimLevel, 1e-9)

	// The EMA moves by about 0.012, below the apply threshold: the level
	// stays put and nothing is written.
	surface.SetFill("rgb(138, 138, 138)")
	ctrl.OnVisible()
	assert.Equal(t, 1, spy.saves)

	// A real change applies and persists the raw reading, not the EMA value.
	surface.SetFill("rgb(255, 255, 255)")
	ctrl.OnVisible()
	require.Equal(t, 2, spy.saves)
	require.NotNil(t, spy.last.LastBrightness)
	assert.InDelta(t, 1.0, *spy.last.LastBrightness, 1e-9)
}

func TestDisableClearsDim(t *testing.T) {
	f := newFixture(t, baseSnapshot(), "rgb(255, 255, 255)")
	require.NoError(t, f.ctrl.Start())
	require.Greater(t, f.opacity(t), 0.0)

	snap := baseSnapshot()
	snap.Enabled = false
	require.NoError(t, f.store.SaveConfig(snap))
	f.ctrl.OnConfigUpdated()

	assert.Equal(t, 0.0, f.opacity(t))
}

func TestStopDetachesOverlay(t *testing.T) {
	f := newFixture(t, baseSnapshot(), "rgb(255, 255, 255)")
	require.NoError(t, f.ctrl.Start())
	require.True(t, f.overlay.Attached(f.ctrl.OverlayID()))

	f.ctrl.Stop()
	assert.False(t, f.overlay.Attached(f.ctrl.OverlayID()))

	// Events after Stop are ignored.
	f.ctrl.OnVisible()
	f.ctrl.ManualDim(0.9)
	assert.False(t, f.overlay.Attached(f.ctrl.OverlayID()))
}
