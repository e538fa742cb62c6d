package telemetry

import (
	"sync"

	"go.uber.org/zap"
)

// Report одна ошибка загрузки ресурса
type Report struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Diagnostics канал диагностики: каждая ошибка источника логируется один раз
type Diagnostics struct {
	mu      sync.Mutex
	reports []Report
	seen    map[string]bool
	logger  *zap.SugaredLogger
}

// NewDiagnostics создает канал диагностики поверх логгера
func NewDiagnostics(logger *zap.SugaredLogger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Diagnostics{
		seen:   make(map[string]bool),
		logger: logger,
	}
}

// Report фиксирует ошибку. Повтор той же ошибки того же источника игнорируется.
func (d *Diagnostics) Report(source string, err error) {
	if err == nil {
		return
	}

	key := source + "\x00" + err.Error()

	d.mu.Lock()
	if d.seen[key] {
		d.mu.Unlock()
		return
	}
	d.seen[key] = true
	d.reports = append(d.reports, Report{Source: source, Message: err.Error()})
	d.mu.Unlock()

	d.logger.Errorw("resource load failed", "source", source, "error", err)
}

// Reports копия зафиксированных ошибок
func (d *Diagnostics) Reports() []Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Report(nil), d.reports...)
}
