package planner

import "fmt"

const (
	DefaultThreshold        = 70
	DefaultStationCeiling   = 52
	DefaultMaxMachines      = 20
	DefaultMaxSplitsPerPart = 2
	DefaultConsolidateLoops = 5

	// допуск при сравнении часов
	hoursEpsilon = 1e-6

	// overflow сверх этого значения делает план неисполнимым
	overflowTolerance = 10

	// ниже этой загрузки машина получает предупреждение
	lowUtilizationRatio = 0.5
)

// Options параметры одного запуска планировщика
type Options struct {
	TimeBudget         float64 // часы на машину, жесткий потолок
	Threshold          int     // минимальный score совместимости для группы, 0 = DefaultThreshold
	StationCeiling     int     // потолок уникальных инструментов на машину
	MaxMachines        int
	MaxSplitsPerPart   int  // на сколько частей максимум можно разбить деталь
	Consolidate        bool // объединять малозагруженные машины после распределения
	ConsolidateLoops   int
	RoundToolsFlexible bool // круглые инструменты могут стоять на станции с направляющей и без
}

// DefaultOptions параметры по умолчанию для заданного бюджета времени
func DefaultOptions(timeBudget float64) Options {
	return Options{
		TimeBudget:       timeBudget,
		Threshold:        DefaultThreshold,
		StationCeiling:   DefaultStationCeiling,
		MaxMachines:      DefaultMaxMachines,
		MaxSplitsPerPart: DefaultMaxSplitsPerPart,
		Consolidate:      true,
		ConsolidateLoops: DefaultConsolidateLoops,
	}
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.StationCeiling <= 0 {
		o.StationCeiling = DefaultStationCeiling
	}
	if o.MaxMachines <= 0 {
		o.MaxMachines = DefaultMaxMachines
	}
	if o.MaxSplitsPerPart <= 0 {
		o.MaxSplitsPerPart = DefaultMaxSplitsPerPart
	}
	if o.ConsolidateLoops <= 0 {
		o.ConsolidateLoops = DefaultConsolidateLoops
	}
	return o
}

func (o Options) validate() error {
	if o.TimeBudget <= 0 {
		return fmt.Errorf("%w: time budget must be positive, got %.2f", ErrValidation, o.TimeBudget)
	}
	if o.Threshold < 0 || o.Threshold > 100 {
		return fmt.Errorf("%w: compatibility threshold must be within 0..100, got %d", ErrValidation, o.Threshold)
	}
	return nil
}
