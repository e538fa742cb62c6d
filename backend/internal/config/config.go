// Package config настройки сервера. YAML файл содержит только переопределяемые ключи, остальное берется из Default.
package config

import (
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Vector трехмерный вектор для YAML
type Vector struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec3 переводит в тип движка
func (v Vector) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// ServerConfig адреса и частота кадров
type ServerConfig struct {
	Listen     string `yaml:"listen"`
	GRPCListen string `yaml:"grpc_listen"`
	FPS        int    `yaml:"fps"`
	InboxSize  int    `yaml:"inbox_size"`
}

// NavigationConfig параметры движения. Пороги стены, бокового выталкивания и пола независимы.
type NavigationConfig struct {
	Speed              float64       `yaml:"speed"`
	EyeOffset          float64       `yaml:"eye_offset"`
	WallClearance      float64       `yaml:"wall_clearance"`
	LateralClearance   float64       `yaml:"lateral_clearance"`
	LateralProbeHeight float64       `yaml:"lateral_probe_height"`
	FloorProbeHeight   float64       `yaml:"floor_probe_height"`
	StepCooldown       time.Duration `yaml:"step_cooldown"`
	Spawn              Vector        `yaml:"spawn"`
}

// InputConfig арбитраж ввода и резервный режим взгляда
type InputConfig struct {
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
	GazeDwell       time.Duration `yaml:"gaze_dwell"`
	GazeTolerance   float64       `yaml:"gaze_tolerance"`
}

// ProximityConfig срабатывание информационной панели
type ProximityConfig struct {
	Radius      float64 `yaml:"radius"`
	PanelOffset Vector  `yaml:"panel_offset"`
}

// AnchorConfig синтетический якорь посередине между двумя объектами сцены
type AnchorConfig struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CategoryRuleConfig подстрока имени или материала и категория объекта
type CategoryRuleConfig struct {
	Category string `yaml:"category"`
	Contains string `yaml:"contains"`
	Match    string `yaml:"match"`
}

// AssetsConfig пути к модели и описаниям точек интереса. Пустой путь выбирает демо-здание.
type AssetsConfig struct {
	Model         string               `yaml:"model,omitempty"`
	POI           string               `yaml:"poi,omitempty"`
	Anchors       []AnchorConfig       `yaml:"anchors"`
	CategoryRules []CategoryRuleConfig `yaml:"category_rules,omitempty"`
}

// TelemetryConfig размер буфера замеров кадров
type TelemetryConfig struct {
	Samples int `yaml:"samples"`
}

// LogConfig уровень логирования
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config полная конфигурация сервера
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Navigation NavigationConfig `yaml:"navigation"`
	Input      InputConfig      `yaml:"input"`
	Proximity  ProximityConfig  `yaml:"proximity"`
	Assets     AssetsConfig     `yaml:"assets"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     ":8080",
			GRPCListen: ":9090",
			FPS:        60,
			InboxSize:  256,
		},
		Navigation: NavigationConfig{
			Speed:              2.0,
			EyeOffset:          1.0,
			WallClearance:      1.3,
			LateralClearance:   1.3,
			LateralProbeHeight: 1.0,
			FloorProbeHeight:   1.5,
			StepCooldown:       400 * time.Millisecond,
			Spawn:              Vector{X: 0, Y: 0, Z: 5},
		},
		Input: InputConfig{
			FallbackTimeout: 2 * time.Second,
			GazeDwell:       1500 * time.Millisecond,
			GazeTolerance:   0.1,
		},
		Proximity: ProximityConfig{
			Radius:      3.0,
			PanelOffset: Vector{X: 0, Y: 1.3, Z: 0},
		},
		Assets: AssetsConfig{
			Anchors: []AnchorConfig{
				{Name: "LobbyShop", From: "LobbyShop_Door__1_", To: "LobbyShop_Door__2_"},
			},
		},
		Telemetry: TelemetryConfig{
			Samples: 200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse накладывает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load читает YAML файл. Пустой путь дает значения по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return cfg, nil
}

// Marshal сериализует конфигурацию в YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate отклоняет настройки, с которыми движок не запустится
func (c *Config) Validate() error {
	switch {
	case c.Server.FPS <= 0:
		return errors.Errorf("server.fps must be positive, got %d", c.Server.FPS)
	case c.Server.InboxSize <= 0:
		return errors.Errorf("server.inbox_size must be positive, got %d", c.Server.InboxSize)
	case c.Navigation.Speed <= 0:
		return errors.Errorf("navigation.speed must be positive, got %v", c.Navigation.Speed)
	case c.Navigation.WallClearance <= 0:
		return errors.Errorf("navigation.wall_clearance must be positive, got %v", c.Navigation.WallClearance)
	case c.Navigation.LateralClearance <= 0:
		return errors.Errorf("navigation.lateral_clearance must be positive, got %v", c.Navigation.LateralClearance)
	case c.Navigation.FloorProbeHeight <= 0:
		return errors.Errorf("navigation.floor_probe_height must be positive, got %v", c.Navigation.FloorProbeHeight)
	case c.Navigation.StepCooldown < 0:
		return errors.Errorf("navigation.step_cooldown must not be negative, got %v", c.Navigation.StepCooldown)
	case c.Input.FallbackTimeout <= 0:
		return errors.Errorf("input.fallback_timeout must be positive, got %v", c.Input.FallbackTimeout)
	case c.Input.GazeDwell <= 0:
		return errors.Errorf("input.gaze_dwell must be positive, got %v", c.Input.GazeDwell)
	case c.Input.GazeTolerance <= 0:
		return errors.Errorf("input.gaze_tolerance must be positive, got %v", c.Input.GazeTolerance)
	case c.Proximity.Radius <= 0:
		return errors.Errorf("proximity.radius must be positive, got %v", c.Proximity.Radius)
	case c.Telemetry.Samples <= 0:
		return errors.Errorf("telemetry.samples must be positive, got %d", c.Telemetry.Samples)
	}

	for i, a := range c.Assets.Anchors {
		if a.Name == "" || a.From == "" || a.To == "" {
			return errors.Errorf("assets.anchors[%d] needs name, from and to", i)
		}
	}
	return nil
}
