package entity

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic/cache"
)

// onTimeMaxAge is how long a stored on-time stays usable.
const onTimeMaxAge = 5 * time.Second

// OnTime holds an on-time set ahead of the next turn-on.
type OnTime struct {
	mu    sync.Mutex
	value float64
	set   time.Time
	has   bool
	now   func() time.Time
}

// NewOnTime creates an empty holder.
func NewOnTime(now func() time.Time) *OnTime {
	if now == nil {
		now = time.Now
	}
	return &OnTime{now: now}
}

// Set stores an on-time in seconds.
func (o *OnTime) Set(seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = seconds
	o.set = o.now()
	o.has = true
}

// TakeAndClear returns the stored on-time if it was set within the last
// five seconds. The holder is empty afterwards either way.
func (o *OnTime) TakeAndClear() (float64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.has {
		return 0, false
	}
	value, set := o.value, o.set
	o.value, o.set, o.has = 0, time.Time{}, false
	if !cache.ChangedWithin(set, onTimeMaxAge, o.now()) {
		return 0, false
	}
	return value, true
}
