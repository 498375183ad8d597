// Package perfstats measures how long it takes to produce samples.
package perfstats

import (
	"sort"
	"sync"
	"time"
)

// TimeAccumulator tracks count, total, min and max of a duration
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	if a.Samples == 0 || v < a.Min {
		a.Min = v
	}
	if v > a.Max {
		a.Max = v
	}
	a.Samples++
	a.Total += v
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}

// Timings is a set of named accumulators, safe for concurrent use
type Timings struct {
	lock sync.Mutex
	acc  map[string]*TimeAccumulator
}

func NewTimings() *Timings {
	return &Timings{acc: map[string]*TimeAccumulator{}}
}

func (t *Timings) Add(name string, v time.Duration) {
	t.lock.Lock()
	defer t.lock.Unlock()
	a := t.acc[name]
	if a == nil {
		a = &TimeAccumulator{}
		t.acc[name] = a
	}
	a.AddSample(v)
}

// Since records the time elapsed since 'start'. Use as: defer t.Since("name", time.Now())
func (t *Timings) Since(name string, start time.Time) {
	t.Add(name, time.Since(start))
}

type Summary struct {
	Name      string  `json:"name"`
	Samples   int64   `json:"samples"`
	AverageMS float64 `json:"averageMS"`
	MinMS     float64 `json:"minMS"`
	MaxMS     float64 `json:"maxMS"`
}

// Summaries returns one entry per name, sorted by name
func (t *Timings) Summaries() []Summary {
	t.lock.Lock()
	defer t.lock.Unlock()
	out := make([]Summary, 0, len(t.acc))
	for name, a := range t.acc {
		out = append(out, Summary{
			Name:      name,
			Samples:   a.Samples,
			AverageMS: ms(a.Average()),
			MinMS:     ms(a.Min),
			MaxMS:     ms(a.Max),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
