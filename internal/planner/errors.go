package planner

import "errors"

var (
	// ErrValidation некорректный вход, планирование не начиналось
	ErrValidation = errors.New("invalid planning input")

	// ErrCapacityExceeded деталь не удалось разместить после всех fallback-шагов
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrMachineCeiling потребовалось открыть больше машин, чем разрешено
	ErrMachineCeiling = errors.New("machine ceiling exceeded")
)

// NoCompatibleMachinesError текст единственной ошибки плана без подходящих машин
const NoCompatibleMachinesError = "no compatible machines for the requested parts (thickness/sheet size)"
