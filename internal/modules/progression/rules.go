package progression

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

const rulesPathEnv = "PROGRESSION_RULES_YAML"

//go:embed rules.yaml
var rulesFS embed.FS

type Rules struct {
	MaxAttempts          int           `yaml:"max_attempts"`
	PassThresholdPercent int           `yaml:"pass_threshold_percent"`
	BadgeBonusPoints     int           `yaml:"badge_bonus_points"`
	BadgeSuffix          string        `yaml:"badge_suffix"`
	ActionCooldown       time.Duration `yaml:"action_cooldown"`
	PositionDebounce     time.Duration `yaml:"position_debounce"`
}

// DefaultRules is used when the YAML is missing or invalid.
func DefaultRules() Rules {
	return Rules{
		MaxAttempts:          3,
		PassThresholdPercent: 50,
		BadgeBonusPoints:     50,
		BadgeSuffix:          " Master",
		ActionCooldown:       2 * time.Second,
		PositionDebounce:     750 * time.Millisecond,
	}
}

// LoadRules reads the rules file named by PROGRESSION_RULES_YAML, or the
// embedded default. Any failure falls back to DefaultRules.
func LoadRules(log *logger.Logger) Rules {
	rules, err := loadRules()
	if err != nil {
		if log != nil {
			log.Warn("progression: rules load failed; using defaults", "error", err)
		}
		return DefaultRules()
	}
	return rules
}

func loadRules() (Rules, error) {
	data, err := readRules()
	if err != nil {
		return Rules{}, err
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, err
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func readRules() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(rulesPathEnv)); path != "" {
		return os.ReadFile(path)
	}
	return rulesFS.ReadFile("rules.yaml")
}

func (r Rules) Validate() error {
	switch {
	case r.MaxAttempts < 1:
		return errors.New("max_attempts must be >= 1")
	case r.PassThresholdPercent < 0 || r.PassThresholdPercent > 100:
		return fmt.Errorf("pass_threshold_percent out of range: %d", r.PassThresholdPercent)
	case r.BadgeBonusPoints < 0:
		return errors.New("badge_bonus_points must be >= 0")
	case strings.TrimSpace(r.BadgeSuffix) == "":
		return errors.New("badge_suffix is required")
	case r.ActionCooldown < 0 || r.PositionDebounce < 0:
		return errors.New("durations must be >= 0")
	}
	return nil
}

// BadgeName derives the per-module badge, e.g. "Safety Basics Master".
func (r Rules) BadgeName(moduleTitle string) string {
	return strings.TrimSpace(moduleTitle) + r.BadgeSuffix
}
