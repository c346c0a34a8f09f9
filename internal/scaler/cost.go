package scaler

import (
	"sync"
	"time"
)

// warnRatio is the share of a limit at which ApproachingLimit reports true.
const warnRatio = 0.8

// CostTracker estimates GPU spend from running pod time and enforces daily and monthly caps.
// Counters reset when the calendar day or month changes.
type CostTracker struct {
	hourly  float64
	daily   float64
	monthly float64
	now     func() time.Time

	mu         sync.Mutex
	dayCost    float64
	monthCost  float64
	lastUpdate time.Time
}

// NewCostTracker creates a tracker billing hourly dollars per running pod.
func NewCostTracker(hourly, dailyLimit, monthlyLimit float64) *CostTracker {
	return &CostTracker{hourly: hourly, daily: dailyLimit, monthly: monthlyLimit, now: time.Now}
}

// HourlyRate is the per pod hourly cost.
func (c *CostTracker) HourlyRate() float64 { return c.hourly }

// CanStart reports whether one more hour of a pod fits both limits.
func (c *CostTracker) CanStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollover(c.now())
	return c.dayCost+c.hourly <= c.daily && c.monthCost+c.hourly <= c.monthly
}

// Update bills running pods for the time since the previous update.
func (c *CostTracker) Update(running int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastUpdate.IsZero() && running > 0 {
		cost := float64(running) * c.hourly * now.Sub(c.lastUpdate).Hours()
		c.rollover(now)
		c.dayCost += cost
		c.monthCost += cost
	} else {
		c.rollover(now)
	}
	c.lastUpdate = now
}

func (c *CostTracker) rollover(now time.Time) {
	if c.lastUpdate.IsZero() {
		return
	}
	ly, lm, ld := c.lastUpdate.Date()
	y, m, d := now.Date()
	if y != ly || m != lm {
		c.monthCost = 0
		c.dayCost = 0
		return
	}
	if d != ld {
		c.dayCost = 0
	}
}

// ApproachingLimit reports spend above 80% of either limit.
func (c *CostTracker) ApproachingLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayCost > c.daily*warnRatio || c.monthCost > c.monthly*warnRatio
}

// LimitExceeded reports spend above either limit.
func (c *CostTracker) LimitExceeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayCost > c.daily || c.monthCost > c.monthly
}

// Spend returns the current daily and monthly estimates.
func (c *CostTracker) Spend() (daily, monthly float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayCost, c.monthCost
}
