package planner

import (
	"fmt"
	"math"
	"sort"

	"pressplan/server/internal/models"
)

// piece количество одной детали в работе у распределителя
type piece struct {
	origin   *models.PartRequirement
	quantity int
	split    bool
}

func (p piece) hours() float64 {
	return float64(p.quantity) / p.origin.UPH
}

// bin открытая машина: последовательный номер и назначенные части
type bin struct {
	seq    int
	pieces []piece
	hours  float64
}

// add добавляет часть, сливая ее с уже назначенной частью той же детали
func (b *bin) add(p piece) {
	b.hours += p.hours()
	for i := range b.pieces {
		if b.pieces[i].origin.ID != p.origin.ID {
			continue
		}
		b.pieces[i].quantity += p.quantity
		b.pieces[i].split = b.pieces[i].quantity < p.origin.Quantity
		return
	}
	b.pieces = append(b.pieces, p)
}

func (b *bin) parts() []*models.PartRequirement {
	return partsOf(b.pieces)
}

// MachineLoad части, назначенные на одну открытую машину
type MachineLoad struct {
	Sequence    int
	Allocations []models.PartAllocation
	Hours       float64
}

// Assignment результат распределения по машинам
type Assignment struct {
	Machines []MachineLoad
	Alerts   []string
	Splits   *SplitCounter
}

type assigner struct {
	opts      Options
	fleetSize int
	bins      []*bin
	current   *bin
	pending   []piece
	splits    *SplitCounter
	alerts    []string
}

// Assign раскладывает группы по машинам, не превышая бюджет времени.
//
// fleetSize - сколько совместимых машин физически доступно. Счетчик делений
// передается снаружи и возвращается в Assignment.
func Assign(groups [][]*models.PartRequirement, fleetSize int, opts Options, splits *SplitCounter) (*Assignment, error) {
	opts = opts.withDefaults()
	if splits == nil {
		splits = NewSplitCounter(opts.MaxSplitsPerPart)
	}
	a := &assigner{
		opts:      opts,
		fleetSize: fleetSize,
		splits:    splits,
	}

	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		pieces := make([]piece, 0, len(group))
		for _, part := range group {
			pieces = append(pieces, piece{origin: part, quantity: part.Quantity})
		}
		if err := a.placeGroup(pieces); err != nil {
			return nil, err
		}
	}

	// pending растет по ходу: хвосты делений добавляются в конец
	for i := 0; i < len(a.pending); i++ {
		if err := a.placePending(a.pending[i]); err != nil {
			return nil, err
		}
	}

	if opts.Consolidate {
		a.bins = consolidate(a.bins, opts, &a.alerts)
	} else {
		a.bins = dropEmpty(a.bins)
	}

	return a.result(), nil
}

func (a *assigner) remaining(b *bin) float64 {
	return a.opts.TimeBudget - b.hours
}

func (a *assigner) canOpen() bool {
	return len(a.bins) < a.opts.MaxMachines && len(a.bins) < a.fleetSize
}

func (a *assigner) open() (*bin, error) {
	if len(a.bins) >= a.opts.MaxMachines {
		return nil, fmt.Errorf("%w: more than %d machines required", ErrMachineCeiling, a.opts.MaxMachines)
	}
	if len(a.bins) >= a.fleetSize {
		return nil, fmt.Errorf("%w: all %d compatible machines are full", ErrCapacityExceeded, a.fleetSize)
	}
	b := &bin{seq: len(a.bins) + 1}
	a.bins = append(a.bins, b)
	a.current = b
	return b, nil
}

func (a *assigner) alertf(format string, args ...interface{}) {
	a.alerts = append(a.alerts, fmt.Sprintf(format, args...))
}

// placeGroup размещает группу на текущей машине, вытесняя наименее совместимых
// участников или деля последнюю деталь, если время не помещается.
func (a *assigner) placeGroup(group []piece) error {
	for {
		if a.current == nil {
			if _, err := a.open(); err != nil {
				return err
			}
		}

		remaining := a.remaining(a.current)
		working := append([]piece(nil), group...)
		var evicted []piece
		var rest *piece

		for sumHours(working) > remaining+hoursEpsilon {
			if len(working) > 1 {
				idx := leastCompatibleIndex(partsOf(working))
				evicted = append(evicted, working[idx])
				working = removeAt(working, idx)
				continue
			}
			head, tail, ok := a.split(working[0], remaining)
			if !ok {
				working = nil
				break
			}
			working = []piece{head}
			rest = &tail
		}

		if len(working) == 0 {
			if len(a.current.pieces) == 0 {
				p := group[0]
				return fmt.Errorf("%w: part %s (%d pcs, %.2fh) does not fit on an empty machine (budget %.2fh, %d/%d pieces used)",
					ErrCapacityExceeded, p.origin.Label(), p.quantity, p.hours(), a.opts.TimeBudget,
					a.splits.Pieces(p.origin.ID), a.splits.Limit())
			}
			// повторяем исходную группу на следующей машине
			if _, err := a.open(); err != nil {
				return err
			}
			continue
		}

		distinct := DistinctToolCount(append(a.current.parts(), partsOf(working)...))
		if distinct > a.opts.StationCeiling {
			if len(a.current.pieces) > 0 {
				if a.canOpen() {
					a.alertf("machine %d would exceed the station ceiling (%d > %d); group moved to machine %d",
						a.current.seq, distinct, a.opts.StationCeiling, len(a.bins)+1)
					if _, err := a.open(); err != nil {
						return err
					}
					continue
				}
				a.alertf("machine %d exceeds the station ceiling (%d > %d)", a.current.seq, distinct, a.opts.StationCeiling)
			} else if len(working) > 1 {
				idx := leastCompatibleIndex(partsOf(working))
				evicted = append(evicted, working[idx])
				a.pending = append(a.pending, evicted...)
				group = removeAt(working, idx)
				continue
			} else {
				p := working[0]
				a.alertf("part %s has %d distinct tools, exceeds the station ceiling of %d; assigned to machine %d as is",
					p.origin.Label(), DistinctToolCount([]*models.PartRequirement{p.origin}), a.opts.StationCeiling, a.current.seq)
			}
		}

		for _, p := range working {
			a.current.add(p)
		}
		a.pending = append(a.pending, evicted...)
		if rest != nil {
			a.pending = append(a.pending, *rest)
			a.splits.Record(rest.origin.ID)
		}
		return nil
	}
}

// placePending размещает вытесненную деталь или хвост деления без учета совместимости
func (a *assigner) placePending(p piece) error {
	hours := p.hours()

	// 1. любая открытая машина, где хватает времени
	for _, b := range a.bins {
		if hours <= a.remaining(b)+hoursEpsilon {
			a.checkCeiling(b, p)
			b.add(p)
			return nil
		}
	}

	// 2. новая машина, если деталь целиком помещается в бюджет
	var openErr error
	if hours <= a.opts.TimeBudget+hoursEpsilon {
		b, err := a.open()
		if err == nil {
			a.checkCeiling(b, p)
			b.add(p)
			return nil
		}
		openErr = err
	}

	// 3. деление на машине с наибольшим запасом времени
	if a.splits.CanSplit(p.origin.ID) {
		target := a.mostRemaining()
		if target == nil || a.fitCount(p, a.remaining(target)) == 0 {
			switch {
			case a.canOpen():
				b, err := a.open()
				if err != nil {
					return err
				}
				target = b
			case len(a.bins) >= a.opts.MaxMachines:
				_, err := a.open()
				return fmt.Errorf("part %s (%d pcs, %.2fh) cannot be split: %w", p.origin.Label(), p.quantity, hours, err)
			}
		}
		if target != nil {
			if head, tail, ok := a.split(p, a.remaining(target)); ok {
				a.checkCeiling(target, head)
				target.add(head)
				a.pending = append(a.pending, tail)
				a.splits.Record(p.origin.ID)
				return nil
			}
		}
	}

	if openErr != nil {
		return fmt.Errorf("part %s (%d pcs, %.2fh) cannot be placed: %w", p.origin.Label(), p.quantity, hours, openErr)
	}
	return fmt.Errorf("%w: part %s (%d pcs, %.2fh) cannot be placed; splits %d/%d, budget %.2fh",
		ErrCapacityExceeded, p.origin.Label(), p.quantity, hours,
		a.splits.Splits(p.origin.ID), a.splits.Limit()-1, a.opts.TimeBudget)
}

func (a *assigner) checkCeiling(b *bin, p piece) {
	distinct := DistinctToolCount(append(b.parts(), p.origin))
	if distinct > a.opts.StationCeiling {
		a.alertf("machine %d exceeds the station ceiling (%d > %d) after placing part %s",
			b.seq, distinct, a.opts.StationCeiling, p.origin.Label())
	}
}

func (a *assigner) mostRemaining() *bin {
	var best *bin
	for _, b := range a.bins {
		if best == nil || a.remaining(b) > a.remaining(best) {
			best = b
		}
	}
	return best
}

// fitCount сколько штук помещается в доступное время (floor)
func (a *assigner) fitCount(p piece, available float64) int {
	if available <= 0 {
		return 0
	}
	fit := int(math.Floor(available * p.origin.UPH))
	for fit > 0 && float64(fit)/p.origin.UPH > available+hoursEpsilon {
		fit--
	}
	return fit
}

// split делит часть пропорционально доступному времени. Лимит частей проверяется
// здесь, а фиксируется вызывающим только после фактического размещения.
func (a *assigner) split(p piece, available float64) (piece, piece, bool) {
	if !a.splits.CanSplit(p.origin.ID) {
		return piece{}, piece{}, false
	}
	fit := a.fitCount(p, available)
	if fit <= 0 || fit >= p.quantity {
		return piece{}, piece{}, false
	}
	head := piece{origin: p.origin, quantity: fit, split: true}
	tail := piece{origin: p.origin, quantity: p.quantity - fit, split: true}
	return head, tail, true
}

func (a *assigner) result() *Assignment {
	machines := make([]MachineLoad, 0, len(a.bins))
	for _, b := range a.bins {
		load := MachineLoad{Sequence: b.seq}
		for _, p := range b.pieces {
			load.Allocations = append(load.Allocations, allocationOf(p))
			load.Hours += p.hours()
		}
		machines = append(machines, load)
	}
	return &Assignment{
		Machines: machines,
		Alerts:   a.alerts,
		Splits:   a.splits,
	}
}

func allocationOf(p piece) models.PartAllocation {
	alloc := models.PartAllocation{
		PartID:           p.origin.ID,
		PartNumber:       p.origin.PartNumber,
		RequiredQuantity: p.origin.Quantity,
		Quantity:         p.quantity,
		UPH:              p.origin.UPH,
		Hours:            p.hours(),
		IsSplit:          p.split,
		ToolCount:        len(p.origin.ToolNumbers()),
		Part:             p.origin,
	}
	if p.split {
		alloc.OriginalQuantity = p.origin.Quantity
	}
	return alloc
}

func partsOf(pieces []piece) []*models.PartRequirement {
	parts := make([]*models.PartRequirement, 0, len(pieces))
	for _, p := range pieces {
		parts = append(parts, p.origin)
	}
	return parts
}

func sumHours(pieces []piece) float64 {
	total := 0.0
	for _, p := range pieces {
		total += p.hours()
	}
	return total
}

func removeAt(pieces []piece, idx int) []piece {
	out := make([]piece, 0, len(pieces)-1)
	out = append(out, pieces[:idx]...)
	return append(out, pieces[idx+1:]...)
}

func dropEmpty(bins []*bin) []*bin {
	out := bins[:0]
	for _, b := range bins {
		if len(b.pieces) > 0 {
			out = append(out, b)
		}
	}
	return out
}

func renumber(bins []*bin) {
	sort.SliceStable(bins, func(i, j int) bool { return bins[i].seq < bins[j].seq })
	for i, b := range bins {
		b.seq = i + 1
	}
}
