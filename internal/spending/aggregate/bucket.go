package aggregate

import "github.com/shopspring/decimal"

// Bucket accumulates hours and their cost.
type Bucket struct {
	Hours decimal.Decimal `json:"hours"`
	Cost  decimal.Decimal `json:"cost"`
}

func (b Bucket) add(hours, cost decimal.Decimal) Bucket {
	return Bucket{Hours: b.Hours.Add(hours), Cost: b.Cost.Add(cost)}
}

// Buckets is one accumulator split by calendar month key and fiscal quarter,
// with an overall total. Decimal addition keeps the split and the total in
// exact agreement no matter the order entries arrive in.
type Buckets struct {
	Months   map[string]Bucket `json:"months"`
	Quarters map[int]Bucket    `json:"quarters"`
	Total    Bucket            `json:"total"`
}

func NewBuckets() *Buckets {
	return &Buckets{
		Months:   make(map[string]Bucket),
		Quarters: make(map[int]Bucket),
	}
}

// Add books hours and cost against the month and quarter buckets.
func (b *Buckets) Add(monthKey string, quarter int, hours, cost decimal.Decimal) {
	b.Months[monthKey] = b.Months[monthKey].add(hours, cost)
	b.Quarters[quarter] = b.Quarters[quarter].add(hours, cost)
	b.Total = b.Total.add(hours, cost)
}

// Merge folds o into b.
func (b *Buckets) Merge(o *Buckets) {
	if o == nil {
		return
	}
	for k, v := range o.Months {
		b.Months[k] = b.Months[k].add(v.Hours, v.Cost)
	}
	for q, v := range o.Quarters {
		b.Quarters[q] = b.Quarters[q].add(v.Hours, v.Cost)
	}
	b.Total = b.Total.add(o.Total.Hours, o.Total.Cost)
}

// QuarterCost returns the cost booked against fiscal quarter q.
func (b *Buckets) QuarterCost(q int) decimal.Decimal {
	return b.Quarters[q].Cost
}
