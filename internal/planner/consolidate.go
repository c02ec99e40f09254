package planner

import (
	"fmt"
	"sort"
)

// consolidate пытается освободить машины: самая легкая машина целиком переносится
// на другую, если там хватает времени и станций. Не больше opts.ConsolidateLoops проходов.
func consolidate(bins []*bin, opts Options, alerts *[]string) []*bin {
	bins = dropEmpty(bins)
	for loop := 0; loop < opts.ConsolidateLoops && len(bins) > 1; loop++ {
		if !mergeLightest(bins, opts, alerts) {
			break
		}
		bins = dropEmpty(bins)
	}
	renumber(bins)
	return bins
}

// mergeLightest переносит первую подходящую машину (по возрастанию загрузки) на другую
func mergeLightest(bins []*bin, opts Options, alerts *[]string) bool {
	order := make([]*bin, len(bins))
	copy(order, bins)
	sort.SliceStable(order, func(i, j int) bool { return order[i].hours < order[j].hours })

	for _, src := range order {
		for _, dst := range bins {
			if dst == src {
				continue
			}
			if dst.hours+src.hours > opts.TimeBudget+hoursEpsilon {
				continue
			}
			if DistinctToolCount(append(dst.parts(), src.parts()...)) > opts.StationCeiling {
				continue
			}
			*alerts = append(*alerts, fmt.Sprintf("machine %d merged into machine %d", src.seq, dst.seq))
			for _, p := range src.pieces {
				dst.add(p)
			}
			src.pieces = nil
			src.hours = 0
			return true
		}
	}
	return false
}
