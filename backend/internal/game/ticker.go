package game

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Framer выполняет один кадр
type Framer interface {
	Frame()
}

// Stage этап кадра
type Stage interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// FrameLoop крутит кадры сессии с целевой частотой в одной горутине
type FrameLoop struct {
	// Конфигурация
	targetFPS     int
	frameDuration time.Duration
	maxFrameTime  time.Duration

	framer Framer
	clock  clock.Clock

	// Состояние
	mu         sync.Mutex
	isRunning  bool
	frameCount uint64
	startTime  time.Time
	lastFrame  time.Time
	cancel     context.CancelFunc
	done       chan struct{}

	// Метрики
	averageFrameTime time.Duration
	maxObservedFrame time.Duration
	skippedFrames    uint64

	logger           *zap.SugaredLogger
	warningThreshold time.Duration
}

// NewFrameLoop создает цикл кадров
func NewFrameLoop(targetFPS int, framer Framer, clk clock.Clock, logger *zap.SugaredLogger) *FrameLoop {
	if targetFPS <= 0 {
		targetFPS = 60
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	frameDuration := time.Second / time.Duration(targetFPS)

	return &FrameLoop{
		targetFPS:        targetFPS,
		frameDuration:    frameDuration,
		maxFrameTime:     frameDuration * 2,
		framer:           framer,
		clock:            clk,
		logger:           logger,
		warningThreshold: frameDuration / 2,
	}
}

// Start запускает цикл. Повторный вызов ничего не делает.
func (fl *FrameLoop) Start(ctx context.Context) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.isRunning {
		return
	}

	ctx, fl.cancel = context.WithCancel(ctx)
	fl.done = make(chan struct{})
	fl.isRunning = true
	fl.startTime = fl.clock.Now()
	fl.lastFrame = fl.startTime

	fl.logger.Debugw("frame loop started", "fps", fl.targetFPS, "frame", fl.frameDuration)

	ticker := fl.clock.Ticker(fl.frameDuration)
	go fl.loop(ctx, ticker, fl.done)
}

// Stop останавливает цикл и ждет завершения текущего кадра
func (fl *FrameLoop) Stop() {
	fl.mu.Lock()
	if !fl.isRunning {
		fl.mu.Unlock()
		return
	}
	fl.isRunning = false
	cancel, done := fl.cancel, fl.done
	fl.mu.Unlock()

	cancel()
	<-done

	fl.logger.Debugw("frame loop stopped", "frames", fl.FrameCount())
}

func (fl *FrameLoop) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tickTime := <-ticker.C:
			fl.executeFrame(tickTime)
		}
	}
}

// executeFrame выполняет один кадр с замером времени
func (fl *FrameLoop) executeFrame(tickTime time.Time) {
	frameStart := fl.clock.Now()

	fl.mu.Lock()
	gap := tickTime.Sub(fl.lastFrame)
	if gap > fl.frameDuration*2 {
		fl.skippedFrames++
	}
	fl.lastFrame = tickTime
	fl.frameCount++
	fl.mu.Unlock()

	fl.framer.Frame()

	fl.updateFrameMetrics(fl.clock.Since(frameStart))
}

func (fl *FrameLoop) updateFrameMetrics(frameTime time.Duration) {
	fl.mu.Lock()
	if frameTime > fl.maxObservedFrame {
		fl.maxObservedFrame = frameTime
	}
	if fl.averageFrameTime == 0 {
		fl.averageFrameTime = frameTime
	} else {
		fl.averageFrameTime = (fl.averageFrameTime*9 + frameTime) / 10
	}
	fl.mu.Unlock()

	if frameTime > fl.maxFrameTime {
		fl.logger.Warnw("frame exceeded max time", "took", frameTime, "max", fl.maxFrameTime, "target", fl.frameDuration)
	} else if frameTime > fl.warningThreshold {
		fl.logger.Debugw("slow frame", "took", frameTime, "target", fl.frameDuration)
	}
}

// FrameCount сколько кадров выполнено
func (fl *FrameLoop) FrameCount() uint64 {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.frameCount
}

// Stats возвращает статистику цикла
func (fl *FrameLoop) Stats() map[string]interface{} {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	uptime := fl.clock.Since(fl.startTime)
	actualFPS := 0.0
	if uptime > 0 {
		actualFPS = float64(fl.frameCount) / uptime.Seconds()
	}

	return map[string]interface{}{
		"target_fps":         fl.targetFPS,
		"actual_fps":         actualFPS,
		"frame_count":        fl.frameCount,
		"uptime_seconds":     uptime.Seconds(),
		"average_frame_time": fl.averageFrameTime,
		"max_observed_frame": fl.maxObservedFrame,
		"skipped_frames":     fl.skippedFrames,
		"is_running":         fl.isRunning,
	}
}

// StageMonitor отслеживает время и ошибки каждого этапа кадра
type StageMonitor struct {
	stageMetrics map[string]*StageMetrics
	mutex        sync.RWMutex

	metricsWindow    int
	warningThreshold time.Duration

	clock  clock.Clock
	logger *zap.SugaredLogger
}

// StageMetrics метрики этапа
type StageMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	// Скользящее окно для вычисления среднего
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// NewStageMonitor создает монитор этапов
func NewStageMonitor(windowSize int, warningThreshold time.Duration, clk clock.Clock, logger *zap.SugaredLogger) *StageMonitor {
	if windowSize <= 0 {
		windowSize = 50
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &StageMonitor{
		stageMetrics:     make(map[string]*StageMetrics),
		metricsWindow:    windowSize,
		warningThreshold: warningThreshold,
		clock:            clk,
		logger:           logger,
	}
}

// Run выполняет этап. Паника этапа перехватывается и считается ошибкой, цикл продолжает работать.
func (sm *StageMonitor) Run(stage Stage, deltaTime time.Duration) {
	start := sm.clock.Now()
	name := stage.GetName()

	defer func() {
		if r := recover(); r != nil {
			sm.logger.Errorw("stage panicked", "stage", name, "panic", r)
			sm.recordError(name)
		}
	}()

	err := stage.Update(deltaTime)
	took := sm.clock.Since(start)
	sm.recordExecution(name, took)

	if err != nil {
		sm.logger.Warnw("stage failed", "stage", name, "error", err)
		sm.recordError(name)
	}
	if sm.warningThreshold > 0 && took > sm.warningThreshold {
		sm.logger.Debugw("slow stage", "stage", name, "took", took)
	}
}

func (sm *StageMonitor) metricsFor(name string) *StageMetrics {
	metrics, exists := sm.stageMetrics[name]
	if !exists {
		metrics = &StageMetrics{
			Name:        name,
			recentTimes: make([]time.Duration, sm.metricsWindow),
		}
		sm.stageMetrics[name] = metrics
	}
	return metrics
}

func (sm *StageMonitor) recordExecution(name string, executionTime time.Duration) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	metrics := sm.metricsFor(name)
	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++

	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % sm.metricsWindow
	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	sm.recalculateAverage(metrics)
}

func (sm *StageMonitor) recordError(name string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.metricsFor(name).Errors++
}

func (sm *StageMonitor) recalculateAverage(metrics *StageMetrics) {
	limit := sm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}
	if limit == 0 {
		return
	}

	var total time.Duration
	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
	}
	metrics.AverageTime = total / time.Duration(limit)
}

// Metrics копия метрик этапа
func (sm *StageMonitor) Metrics(name string) (StageMetrics, bool) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	metrics, ok := sm.stageMetrics[name]
	if !ok {
		return StageMetrics{}, false
	}
	out := *metrics
	out.recentTimes = nil
	return out, true
}

// StagesStats статистика всех этапов
func (sm *StageMonitor) StagesStats() map[string]interface{} {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	stats := make(map[string]interface{}, len(sm.stageMetrics))
	for name, metrics := range sm.stageMetrics {
		stats[name] = map[string]interface{}{
			"last_execution_time": metrics.LastExecutionTime,
			"average_time":        metrics.AverageTime,
			"max_time":            metrics.MaxTime,
			"total_executions":    metrics.TotalExecutions,
			"errors":              metrics.Errors,
		}
	}
	return stats
}
