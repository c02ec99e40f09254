package planner

// SplitCounter считает, на сколько частей разбита каждая деталь.
// Создается на каждый вызов планировщика и не разделяется между запросами.
type SplitCounter struct {
	limit  int
	pieces map[string]int
}

// NewSplitCounter limit - максимальное число частей одной детали
func NewSplitCounter(limit int) *SplitCounter {
	if limit < 1 {
		limit = 1
	}
	return &SplitCounter{
		limit:  limit,
		pieces: make(map[string]int),
	}
}

// Pieces текущее число частей детали (1, пока деталь не делилась)
func (c *SplitCounter) Pieces(partID string) int {
	if n, ok := c.pieces[partID]; ok {
		return n
	}
	return 1
}

// Splits сколько раз деталь делилась
func (c *SplitCounter) Splits(partID string) int {
	return c.Pieces(partID) - 1
}

// CanSplit еще одно деление не превысит лимит частей
func (c *SplitCounter) CanSplit(partID string) bool {
	return c.Pieces(partID)+1 <= c.limit
}

// Record фиксирует деление детали
func (c *SplitCounter) Record(partID string) {
	c.pieces[partID] = c.Pieces(partID) + 1
}

// Limit максимальное число частей
func (c *SplitCounter) Limit() int {
	return c.limit
}
