package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Vector3 структура для 3D вектора
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FrameSample телеметрия одного кадра сессии
type FrameSample struct {
	Timestamp         int64   `json:"timestamp"` // Время в миллисекундах
	Session           string  `json:"session"`
	Frame             uint64  `json:"frame"`
	Position          Vector3 `json:"position"`
	Mode              string  `json:"mode"`
	Moving            bool    `json:"moving"`                       // Было ли запрошено движение
	Advanced          bool    `json:"advanced"`                     // Сдвинулись ли вперед
	Blocked           bool    `json:"blocked"`                      // Упор в стену
	LateralCorrection float64 `json:"lateral_correction,omitempty"` // Величина бокового выталкивания
	FloorSnapped      bool    `json:"floor_snapped"`
	Footstep          bool    `json:"footstep"`
	ActivePOI         string  `json:"active_poi,omitempty"`
}

// Recorder хранит последние кадры и счетчики событий
type Recorder struct {
	enabled    bool
	data       []FrameSample
	next       int
	filled     bool
	mutex      sync.RWMutex
	maxEntries int

	// Счетчики для статистики
	counters      map[string]int
	lastPrint     time.Time
	printInterval time.Duration

	clock  clock.Clock
	logger *zap.SugaredLogger
}

// NewRecorder создает буфер на maxEntries кадров
func NewRecorder(maxEntries int, clk clock.Clock, logger *zap.SugaredLogger) *Recorder {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Recorder{
		enabled:       true,
		data:          make([]FrameSample, maxEntries),
		maxEntries:    maxEntries,
		counters:      make(map[string]int),
		lastPrint:     clk.Now(),
		printInterval: 30 * time.Second,
		clock:         clk,
		logger:        logger,
	}
}

// Record записывает кадр в кольцевой буфер
func (r *Recorder) Record(sample FrameSample) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.enabled {
		return
	}

	if sample.Timestamp == 0 {
		sample.Timestamp = r.clock.Now().UnixMilli()
	}

	r.data[r.next] = sample
	r.next = (r.next + 1) % r.maxEntries
	if r.next == 0 {
		r.filled = true
	}

	r.counters["frames"]++
	if sample.Advanced {
		r.counters["advanced"]++
	}
	if sample.Blocked {
		r.counters["blocked"]++
	}
	if sample.LateralCorrection > 0 {
		r.counters["lateral_corrections"]++
	}
	if sample.Footstep {
		r.counters["footsteps"]++
	}
}

// Increment увеличивает произвольный счетчик
func (r *Recorder) Increment(key string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.counters[key]++
}

// Samples возвращает записанные кадры от старых к новым
func (r *Recorder) Samples() []FrameSample {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.filled {
		return append([]FrameSample(nil), r.data[:r.next]...)
	}

	result := make([]FrameSample, 0, r.maxEntries)
	result = append(result, r.data[r.next:]...)
	result = append(result, r.data[:r.next]...)
	return result
}

// Counters копия счетчиков
func (r *Recorder) Counters() map[string]int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]int, len(r.counters))
	for k, v := range r.counters {
		result[k] = v
	}
	return result
}

// PrintSummary выводит сводку не чаще printInterval
func (r *Recorder) PrintSummary() {
	now := r.clock.Now()

	r.mutex.Lock()
	if !r.enabled || now.Sub(r.lastPrint) < r.printInterval {
		r.mutex.Unlock()
		return
	}
	r.lastPrint = now
	r.mutex.Unlock()

	samples := r.Samples()
	fields := []interface{}{"samples", len(samples)}
	for k, v := range r.Counters() {
		fields = append(fields, k, v)
	}
	if len(samples) > 0 {
		last := samples[len(samples)-1]
		fields = append(fields, "last_session", last.Session, "last_position", last.Position, "last_poi", last.ActivePOI)
	}
	r.logger.Infow("telemetry summary", fields...)
}

// SetEnabled включает/выключает запись
func (r *Recorder) SetEnabled(enabled bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.enabled = enabled
	r.logger.Infow("telemetry toggled", "enabled", enabled)
}

// Clear очищает все данные телеметрии
func (r *Recorder) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data = make([]FrameSample, r.maxEntries)
	r.next = 0
	r.filled = false
	r.counters = make(map[string]int)
}

// Snapshot содержимое эндпоинта /debug/telemetry
type Snapshot struct {
	Counters    map[string]int         `json:"counters"`
	Samples     []FrameSample          `json:"samples"`
	Diagnostics []Report               `json:"diagnostics,omitempty"`
	Sessions    map[string]interface{} `json:"sessions,omitempty"` // Циклы кадров и этапы открытых сессий
}

// StatsSource статистика циклов кадров по id сессии
type StatsSource interface {
	SessionStats() map[string]interface{}
}

// Handler отдает телеметрию в JSON. d и sessions могут быть nil.
func Handler(r *Recorder, d *Diagnostics, sessions StatsSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		snap := Snapshot{
			Counters: r.Counters(),
			Samples:  r.Samples(),
		}
		if d != nil {
			snap.Diagnostics = d.Reports()
		}
		if sessions != nil {
			snap.Sessions = sessions.SessionStats()
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			r.logger.Warnw("telemetry encode failed", "error", err)
		}
	})
}
