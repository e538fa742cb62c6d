package ws

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"walkthrough/backend/internal/core/domain/entity"
)

// safeValue проверяет значения на NaN и бесконечность и заменяет их на defaultValue
func safeValue(value float64, defaultValue float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return defaultValue
	}
	return value
}

func safeVec(v mgl64.Vec3) [3]float64 {
	return [3]float64{safeValue(v[0], 0), safeValue(v[1], 0), safeValue(v[2], 0)}
}

// safeQuat в порядке x, y, z, w. Единичный кватернион по умолчанию.
func safeQuat(q mgl64.Quat) [4]float64 {
	return [4]float64{
		safeValue(q.V[0], 0),
		safeValue(q.V[1], 0),
		safeValue(q.V[2], 0),
		safeValue(q.W, 1),
	}
}

// quatFromWire собирает кватернион из порядка x, y, z, w
func quatFromWire(r [4]float64) mgl64.Quat {
	return mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
}

// NewStateMessage переводит итог кадра в сообщение. Поза головы отдается в мировых координатах.
func NewStateMessage(state entity.FrameState, panel entity.PanelState) StateMessage {
	return StateMessage{
		Type:      MessageTypeState,
		Frame:     state.Frame,
		Immersive: state.Immersive,
		Rig: PoseMessage{
			Position: safeVec(state.Rig.Position),
			Rotation: safeQuat(state.Rig.Rotation),
		},
		Look: PoseMessage{
			Position: safeVec(state.Look.WorldPosition(state.Rig)),
			Rotation: safeQuat(state.Look.WorldRotation(state.Rig)),
		},
		Mode:     state.Mode.String(),
		Gaze:     state.Gaze.String(),
		Moving:   state.Moving,
		Footstep: state.Footstep,
		Panel: PanelMessage{
			Visible:  panel.Visible,
			Name:     panel.Name,
			Title:    panel.Title,
			Body:     panel.Body,
			Position: safeVec(panel.Position),
			Target:   safeVec(panel.Target),
		},
	}
}
