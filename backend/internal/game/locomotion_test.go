package game

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"walkthrough/backend/internal/core/port/out/audio"
	"walkthrough/backend/internal/world"
)

type fakePlayer struct {
	mu    sync.Mutex
	once  []audio.Sound
	loops map[audio.Sound]float64
}

func (p *fakePlayer) PlayOnce(sound audio.Sound) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.once = append(p.once, sound)
}

func (p *fakePlayer) PlayLoop(sound audio.Sound, volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loops == nil {
		p.loops = make(map[audio.Sound]float64)
	}
	p.loops[sound] = volume
}

func (p *fakePlayer) Stop(sound audio.Sound) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.loops, sound)
}

func (p *fakePlayer) footsteps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.once)
}

// quad два треугольника прямоугольника a-b-c-d
func quad(a, b, c, d mgl64.Vec3) []world.Triangle {
	return []world.Triangle{{A: a, B: b, C: c}, {A: a, B: c, C: d}}
}

// Несимметричные границы, чтобы тестовые лучи не попадали в диагональ прямоугольника
const (
	lo  = -10.0
	hi1 = 13.0
	hi2 = 14.0
)

// wallZ плоскость z = const
func wallZ(z float64) []world.Triangle {
	return quad(
		mgl64.Vec3{lo, lo, z}, mgl64.Vec3{hi1, lo, z},
		mgl64.Vec3{hi1, hi2, z}, mgl64.Vec3{lo, hi2, z},
	)
}

// wallX плоскость x = const
func wallX(x float64) []world.Triangle {
	return quad(
		mgl64.Vec3{x, lo, lo}, mgl64.Vec3{x, lo, hi2},
		mgl64.Vec3{x, hi1, hi2}, mgl64.Vec3{x, hi1, lo},
	)
}

// floorY плоскость y = const
func floorY(y float64) []world.Triangle {
	return quad(
		mgl64.Vec3{lo, y, lo}, mgl64.Vec3{hi1, y, lo},
		mgl64.Vec3{hi1, y, hi2}, mgl64.Vec3{lo, y, hi2},
	)
}

func proxyOf(tris ...[]world.Triangle) *world.Raycaster {
	var all []world.Triangle
	for _, t := range tris {
		all = append(all, t...)
	}
	r := world.NewRaycaster()
	r.SetProxy(world.NewProxy(world.NewMesh(all)))
	return r
}

func newTestLocomotion(t *testing.T, ray Raycaster, clk clock.Clock) (*Locomotion, *fakePlayer) {
	t.Helper()
	player := &fakePlayer{}
	loco := NewLocomotion(DefaultLocomotionConfig(), ray, mgl64.Vec3{}, clk, zaptest.NewLogger(t).Sugar())
	loco.SetAudio(player)
	return loco, player
}

func TestStepWithoutProxyIsNoop(t *testing.T) {
	loco, player := newTestLocomotion(t, world.NewRaycaster(), clock.NewMock())
	loco.Rig.Position = mgl64.Vec3{1, 2, 3}
	loco.SetHeadPose(mgl64.Vec3{0, 1.6, 0}, mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0}))

	res := loco.Step(time.Second)

	test.That(t, res.Skipped, test.ShouldBeTrue)
	test.That(t, res.Advanced, test.ShouldBeFalse)
	test.That(t, loco.Rig.Position, test.ShouldResemble, mgl64.Vec3{1, 2, 3})
	test.That(t, loco.Rig.Rotation, test.ShouldResemble, mgl64.QuatIdent())
	test.That(t, player.footsteps(), test.ShouldEqual, 0)

	// Ограничитель шагов тоже не тронут: первый шаг с прокси звучит сразу
	loco.ray = proxyOf(wallZ(-100))
	res = loco.Step(0)
	test.That(t, res.Footstep, test.ShouldBeTrue)
}

func TestStepBlockedByNearWall(t *testing.T) {
	loco, player := newTestLocomotion(t, proxyOf(wallZ(-1)), clock.NewMock())

	res := loco.Step(100 * time.Millisecond)

	test.That(t, res.Blocked, test.ShouldBeTrue)
	test.That(t, res.Advanced, test.ShouldBeFalse)
	test.That(t, res.WallDistance, test.ShouldAlmostEqual, 1.0)
	test.That(t, loco.Rig.Position, test.ShouldResemble, mgl64.Vec3{0, 0, 0})
	test.That(t, player.footsteps(), test.ShouldEqual, 0)
}

func TestStepAdvancesWhenWallFar(t *testing.T) {
	loco, player := newTestLocomotion(t, proxyOf(wallZ(-5)), clock.NewMock())

	res := loco.Step(100 * time.Millisecond)

	test.That(t, res.Advanced, test.ShouldBeTrue)
	test.That(t, res.Blocked, test.ShouldBeFalse)
	test.That(t, loco.Rig.Position.X(), test.ShouldAlmostEqual, 0)
	test.That(t, loco.Rig.Position.Y(), test.ShouldAlmostEqual, 0)
	test.That(t, loco.Rig.Position.Z(), test.ShouldAlmostEqual, -0.2)
	test.That(t, res.Footstep, test.ShouldBeTrue)
	test.That(t, player.footsteps(), test.ShouldEqual, 1)
}

func TestStepAdvancesJustBeyondClearance(t *testing.T) {
	loco, _ := newTestLocomotion(t, proxyOf(wallZ(-1.35)), clock.NewMock())

	res := loco.Step(0)
	test.That(t, res.Advanced, test.ShouldBeTrue)
}

func TestLateralCorrectionExactAndIdempotent(t *testing.T) {
	loco, _ := newTestLocomotion(t, proxyOf(wallX(-1)), clock.NewMock())

	res := loco.Step(0)
	test.That(t, res.LateralCorrection, test.ShouldAlmostEqual, 0.3)
	test.That(t, loco.Rig.Position.X(), test.ShouldAlmostEqual, 0.3)
	test.That(t, loco.Rig.Position.Z(), test.ShouldAlmostEqual, 0)

	x := loco.Rig.Position.X()
	res = loco.Step(0)
	test.That(t, res.LateralCorrection, test.ShouldEqual, 0.0)
	test.That(t, loco.Rig.Position.X(), test.ShouldEqual, x)
}

func TestLateralCorrectionRightWall(t *testing.T) {
	loco, _ := newTestLocomotion(t, proxyOf(wallX(0.5)), clock.NewMock())

	res := loco.Step(0)
	test.That(t, res.LateralCorrection, test.ShouldAlmostEqual, 0.8)
	test.That(t, loco.Rig.Position.X(), test.ShouldAlmostEqual, -0.8)
}

func TestDiagonalWalkUpRampKeepsLateralZero(t *testing.T) {
	lib := world.NewLibrary(nil, nil, zaptest.NewLogger(t).Sugar())
	test.That(t, lib.LoadModel(world.DemoModelSource, nil), test.ShouldBeNil)

	loco, _ := newTestLocomotion(t, lib.Raycaster, clock.NewMock())
	loco.Rig.Position = mgl64.Vec3{6, 0.5, -5}
	loco.SetHeadPose(mgl64.Vec3{0, 1.6, 0}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0}))

	for i := 0; i < 30; i++ {
		res := loco.Step(16 * time.Millisecond)
		test.That(t, res.Advanced, test.ShouldBeTrue)
		test.That(t, res.FloorSnapped, test.ShouldBeTrue)
		test.That(t, res.LateralCorrection, test.ShouldEqual, 0.0)
	}

	// Шли строго по диагонали вверх по пандусу
	pos := loco.Rig.Position
	test.That(t, pos.X(), test.ShouldBeLessThan, 6)
	test.That(t, pos.X()-6, test.ShouldAlmostEqual, pos.Z()+5)
	test.That(t, pos.Y(), test.ShouldBeGreaterThan, 0.5)
}

func TestFloorSnap(t *testing.T) {
	loco, _ := newTestLocomotion(t, proxyOf(floorY(0.25)), clock.NewMock())
	loco.Rig.Position = mgl64.Vec3{1, 0, 2}

	res := loco.Step(0)

	test.That(t, res.FloorSnapped, test.ShouldBeTrue)
	test.That(t, loco.Rig.Position.X(), test.ShouldAlmostEqual, 1)
	test.That(t, loco.Rig.Position.Y(), test.ShouldAlmostEqual, 0.25)
	test.That(t, loco.Rig.Position.Z(), test.ShouldAlmostEqual, 2)
}

func TestFloorAboveProbeIgnored(t *testing.T) {
	loco, _ := newTestLocomotion(t, proxyOf(floorY(2)), clock.NewMock())

	res := loco.Step(0)
	test.That(t, res.FloorSnapped, test.ShouldBeFalse)
	test.That(t, loco.Rig.Position.Y(), test.ShouldEqual, 0.0)
}

func TestStepFollowsLookAndRestoresRigOrientation(t *testing.T) {
	loco, _ := newTestLocomotion(t, proxyOf(wallZ(100)), clock.NewMock())
	loco.SetHeadPose(mgl64.Vec3{0, 1.6, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))

	res := loco.Step(time.Second)

	test.That(t, res.Advanced, test.ShouldBeTrue)
	test.That(t, loco.Rig.Position.X(), test.ShouldAlmostEqual, -2)
	test.That(t, loco.Rig.Position.Z(), test.ShouldAlmostEqual, 0)
	test.That(t, loco.Rig.Rotation.ApproxEqual(mgl64.QuatIdent()), test.ShouldBeTrue)
}

func TestFootstepCooldown(t *testing.T) {
	clk := clock.NewMock()
	loco, player := newTestLocomotion(t, proxyOf(wallZ(-1000)), clk)

	test.That(t, loco.Step(0).Footstep, test.ShouldBeTrue)

	clk.Add(200 * time.Millisecond)
	test.That(t, loco.Step(0).Footstep, test.ShouldBeFalse)

	clk.Add(200 * time.Millisecond)
	test.That(t, loco.Step(0).Footstep, test.ShouldBeFalse)

	clk.Add(50 * time.Millisecond)
	test.That(t, loco.Step(0).Footstep, test.ShouldBeTrue)

	test.That(t, player.footsteps(), test.ShouldEqual, 2)
}

func TestFootstepNotPlayedWhenBlocked(t *testing.T) {
	clk := clock.NewMock()
	loco, player := newTestLocomotion(t, proxyOf(wallZ(-0.5)), clk)

	for i := 0; i < 5; i++ {
		clk.Add(time.Second)
		loco.Step(100 * time.Millisecond)
	}
	test.That(t, player.footsteps(), test.ShouldEqual, 0)
}
