package scheduler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type ScoringFactors struct {
	WeekendDaysMultiplier float64 `koanf:"weekendDaysMultiplier" json:"weekendDaysMultiplier"`
	TimeDivisor           float64 `koanf:"timeDivisor" json:"timeDivisor"`
}

// Weights 公平性评分权重，对应外部权重文档中的键
type Weights struct {
	WeekendPenalty    float64        `koanf:"weekendPenalty" json:"weekendPenalty"`
	TimeBonus         float64        `koanf:"timeBonus" json:"timeBonus"`
	BalanceBonus      float64        `koanf:"balanceBonus" json:"balanceBonus"`
	ContinuityBonus   float64        `koanf:"continuityBonus" json:"continuityBonus"`
	MaxWeekendPenalty float64        `koanf:"maxWeekendPenalty" json:"maxWeekendPenalty"`
	MaxTimeBonus      float64        `koanf:"maxTimeBonus" json:"maxTimeBonus"`
	MaxBalanceBonus   float64        `koanf:"maxBalanceBonus" json:"maxBalanceBonus"`
	ScoringFactors    ScoringFactors `koanf:"scoringFactors" json:"scoringFactors"`
}

func DefaultWeights() Weights {
	return Weights{
		WeekendPenalty:    50,
		TimeBonus:         1,
		BalanceBonus:      5,
		ContinuityBonus:   1000,
		MaxWeekendPenalty: 50,
		MaxTimeBonus:      30,
		MaxBalanceBonus:   20,
		ScoringFactors: ScoringFactors{
			WeekendDaysMultiplier: 1,
			TimeDivisor:           1,
		},
	}
}

func (w Weights) validate() error {
	values := []float64{
		w.WeekendPenalty, w.TimeBonus, w.BalanceBonus, w.ContinuityBonus,
		w.MaxWeekendPenalty, w.MaxTimeBonus, w.MaxBalanceBonus,
		w.ScoringFactors.WeekendDaysMultiplier,
	}
	for _, v := range values {
		if v < 0 {
			return errors.New("权重不能为负数")
		}
	}
	if w.ScoringFactors.TimeDivisor <= 0 {
		return errors.New("timeDivisor 必须大于 0")
	}
	return nil
}

// weightKeys 环境变量 FAIRNESS_<KEY> 到文档键的映射，
// 例如 FAIRNESS_SCORINGFACTORS_TIMEDIVISOR -> scoringFactors.timeDivisor
var weightKeys = func() map[string]string {
	keys := []string{
		"weekendPenalty", "timeBonus", "balanceBonus", "continuityBonus",
		"maxWeekendPenalty", "maxTimeBonus", "maxBalanceBonus",
		"scoringFactors.weekendDaysMultiplier", "scoringFactors.timeDivisor",
	}
	m := make(map[string]string, len(keys))
	for _, key := range keys {
		m[strings.ToLower(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return m
}()

// LoadWeights 依次叠加默认值、权重文档（YAML，JSON 作为 YAML 子集同样可读）和 FAIRNESS_ 环境变量。
// 任何一步失败都回退到内置默认值，不会让排班失败
func LoadWeights(path string, logger *slog.Logger) Weights {
	defaults := DefaultWeights()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Warn("无法读取公平性权重文件，使用默认权重", "path", path, "error", err)
			return defaults
		}
	}

	envProvider := env.Provider("FAIRNESS_", ".", func(s string) string {
		return weightKeys[strings.ToLower(strings.TrimPrefix(s, "FAIRNESS_"))]
	})
	if err := k.Load(envProvider, nil); err != nil {
		logger.Warn("无法读取公平性权重环境变量，使用默认权重", "error", err)
		return defaults
	}

	// 在默认值的基础上覆盖，没有出现的键保持默认
	w := defaults
	if err := k.UnmarshalWithConf("", &w, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		logger.Warn("无法解析公平性权重，使用默认权重", "path", path, "error", err)
		return defaults
	}
	if err := w.validate(); err != nil {
		logger.Warn("公平性权重不合法，使用默认权重", "path", path, "error", err)
		return defaults
	}

	if path != "" {
		logger.Info("已加载公平性权重", "path", path)
	}
	return w
}
