package game

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"walkthrough/backend/internal/core/domain/entity"
)

// GazeDwell превращает удержание взгляда в команду движения.
// Пока направление взгляда держится в пределах tolerance от опорного, копится время;
// через dwell режим становится Move и держится, пока взгляд не уйдет.
type GazeDwell struct {
	dwell     time.Duration
	tolerance float64 // радианы

	mode      entity.GazeMode
	anchor    mgl64.Vec3
	hasAnchor bool
	elapsed   time.Duration
}

// NewGazeDwell создает контроллер удержания взгляда
func NewGazeDwell(dwell time.Duration, tolerance float64) *GazeDwell {
	return &GazeDwell{
		dwell:     dwell,
		tolerance: tolerance,
		mode:      entity.GazeIdle,
	}
}

// Mode текущий режим
func (g *GazeDwell) Mode() entity.GazeMode {
	return g.mode
}

// Update продвигает контроллер на dt с новым направлением взгляда
func (g *GazeDwell) Update(dt time.Duration, direction mgl64.Vec3) entity.GazeMode {
	if direction.Len() < 1e-9 {
		return g.mode
	}
	direction = direction.Normalize()

	if !g.hasAnchor || angleBetween(g.anchor, direction) > g.tolerance {
		g.anchor = direction
		g.hasAnchor = true
		g.elapsed = 0
		g.mode = entity.GazeIdle
		return g.mode
	}

	g.elapsed += dt
	if g.elapsed >= g.dwell {
		g.mode = entity.GazeMove
	} else {
		g.mode = entity.GazeGazing
	}
	return g.mode
}

func angleBetween(a, b mgl64.Vec3) float64 {
	cos := a.Dot(b)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}
