package backtester

// Lot is a single open purchase awaiting a closing sale.
type Lot struct {
	EntryDay   int     `json:"entryDay"`
	EntryPrice float64 `json:"entryPrice"`
}

// LotQueue is a FIFO queue of open lots. The front is always the oldest
// open lot, which is the only lot ever considered for sale, so first-in
// first-out accounting is structural rather than a bookkeeping convention.
type LotQueue struct {
	lots []Lot
}

// NewLotQueue creates an empty queue.
func NewLotQueue() *LotQueue {
	return &LotQueue{}
}

// Push appends a newly opened lot to the back of the queue.
func (q *LotQueue) Push(lot Lot) {
	q.lots = append(q.lots, lot)
}

// Oldest returns the front lot without removing it.
func (q *LotQueue) Oldest() (Lot, bool) {
	if len(q.lots) == 0 {
		return Lot{}, false
	}
	return q.lots[0], true
}

// PopOldest removes and returns the front lot.
func (q *LotQueue) PopOldest() (Lot, bool) {
	if len(q.lots) == 0 {
		return Lot{}, false
	}
	lot := q.lots[0]
	q.lots = q.lots[1:]
	return lot, true
}

// Len returns the number of open lots.
func (q *LotQueue) Len() int {
	return len(q.lots)
}
