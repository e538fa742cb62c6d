package game

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"walkthrough/backend/internal/core/domain/entity"
)

// waitFor ждет условия, которое выставляет горутина таймера mock-часов
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestArbiter(t *testing.T) (*InputArbiter, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	arb := NewInputArbiter(DefaultInputConfig(), clk, zaptest.NewLogger(t).Sugar())
	t.Cleanup(arb.Stop)
	return arb, clk
}

func TestFallbackFiresOnceAfterTimeout(t *testing.T) {
	arb, clk := newTestArbiter(t)
	arb.Start()
	arb.Start()

	test.That(t, arb.Mode(), test.ShouldEqual, entity.AwaitingController)

	clk.Add(1999 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	test.That(t, arb.Mode(), test.ShouldEqual, entity.AwaitingController)

	clk.Add(time.Millisecond)
	waitFor(t, func() bool { return arb.Mode() == entity.GazeFallbackActive })

	clk.Add(time.Minute)
	time.Sleep(10 * time.Millisecond)
	test.That(t, arb.FallbackCount(), test.ShouldEqual, 1)
}

func TestControllerBeforeTimeoutCancelsFallback(t *testing.T) {
	arb, clk := newTestArbiter(t)
	arb.Start()

	clk.Add(500 * time.Millisecond)
	arb.ControllerConnected(0)
	test.That(t, arb.Mode(), test.ShouldEqual, entity.ControllerActive)

	clk.Add(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	test.That(t, arb.Mode(), test.ShouldEqual, entity.ControllerActive)
	test.That(t, arb.FallbackCount(), test.ShouldEqual, 0)
}

func TestControllerAfterFallbackWins(t *testing.T) {
	arb, clk := newTestArbiter(t)
	arb.Start()

	clk.Add(2 * time.Second)
	waitFor(t, func() bool { return arb.Mode() == entity.GazeFallbackActive })

	arb.ControllerConnected(1)
	test.That(t, arb.Mode(), test.ShouldEqual, entity.ControllerActive)

	// Отключение контроллера режим не возвращает
	arb.ControllerDisconnected(1)
	test.That(t, arb.Mode(), test.ShouldEqual, entity.ControllerActive)
}

func TestMoveRequestedController(t *testing.T) {
	arb, _ := newTestArbiter(t)

	arb.SelectStart(0)
	test.That(t, arb.MoveRequested(), test.ShouldBeFalse)

	arb.ControllerConnected(0)
	test.That(t, arb.MoveRequested(), test.ShouldBeTrue)

	arb.SelectStart(1)
	arb.SelectEnd(0)
	test.That(t, arb.MoveRequested(), test.ShouldBeTrue)

	arb.ControllerDisconnected(1)
	test.That(t, arb.MoveRequested(), test.ShouldBeFalse)
}

func TestMoveRequestedGaze(t *testing.T) {
	arb, clk := newTestArbiter(t)
	arb.Start()

	forward := mgl64.Vec3{0, 0, -1}

	// До отката взгляд не учитывается
	arb.UpdateGaze(time.Second, forward)
	test.That(t, arb.GazeMode(), test.ShouldEqual, entity.GazeIdle)

	clk.Add(2 * time.Second)
	waitFor(t, func() bool { return arb.Mode() == entity.GazeFallbackActive })

	arb.UpdateGaze(0, forward)
	test.That(t, arb.MoveRequested(), test.ShouldBeFalse)

	arb.UpdateGaze(time.Second, forward)
	test.That(t, arb.GazeMode(), test.ShouldEqual, entity.GazeGazing)
	test.That(t, arb.MoveRequested(), test.ShouldBeFalse)

	arb.UpdateGaze(600*time.Millisecond, forward)
	test.That(t, arb.GazeMode(), test.ShouldEqual, entity.GazeMove)
	test.That(t, arb.MoveRequested(), test.ShouldBeTrue)

	// Кнопки в режиме взгляда ничего не решают
	arb.SelectStart(0)
	arb.UpdateGaze(0, mgl64.Vec3{1, 0, 0})
	test.That(t, arb.MoveRequested(), test.ShouldBeFalse)
}

func TestGazeDwell(t *testing.T) {
	g := NewGazeDwell(1500*time.Millisecond, 0.1)
	forward := mgl64.Vec3{0, 0, -1}

	test.That(t, g.Update(time.Second, forward), test.ShouldEqual, entity.GazeIdle)
	test.That(t, g.Update(time.Second, forward), test.ShouldEqual, entity.GazeGazing)
	test.That(t, g.Update(500*time.Millisecond, forward), test.ShouldEqual, entity.GazeMove)

	// Небольшое дрожание в пределах допуска режим не сбрасывает
	jitter := mgl64.QuatRotate(0.05, mgl64.Vec3{0, 1, 0}).Rotate(forward)
	test.That(t, g.Update(100*time.Millisecond, jitter), test.ShouldEqual, entity.GazeMove)

	away := mgl64.QuatRotate(0.2, mgl64.Vec3{0, 1, 0}).Rotate(forward)
	test.That(t, g.Update(100*time.Millisecond, away), test.ShouldEqual, entity.GazeIdle)
	test.That(t, g.Mode(), test.ShouldEqual, entity.GazeIdle)

	// Нулевое направление игнорируется
	test.That(t, g.Update(time.Second, mgl64.Vec3{}), test.ShouldEqual, entity.GazeIdle)
}

func TestAngleBetween(t *testing.T) {
	test.That(t, angleBetween(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}), test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, angleBetween(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0}), test.ShouldAlmostEqual, 0)
}
