package audio

// Sound идентификатор звука на стороне клиента
type Sound string

const (
	Footstep Sound = "footstep"
	Ambient  Sound = "ambient"
)

// Громкости по умолчанию
const (
	AmbientVolume  = 0.5
	FootstepVolume = 1.0
)

// Player определяет интерфейс воспроизведения звука. Результат вызовов не используется.
type Player interface {
	PlayOnce(sound Sound)
	PlayLoop(sound Sound, volume float64)
	Stop(sound Sound)
}
