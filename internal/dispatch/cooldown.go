package dispatch

import (
	"sync"
	"time"
)

// Cooldowns tracks, per user and command, when the command may run again.
type Cooldowns struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Allow reports whether userID may run command now and, if so, starts a new
// cooldown of length d. When refused it returns the time left.
func (c *Cooldowns) Allow(userID, command string, d time.Duration) (time.Duration, bool) {
	if d <= 0 || userID == "" {
		return 0, true
	}
	key := userID + ":" + command

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if until, ok := c.until[key]; ok && now.Before(until) {
		return until.Sub(now), false
	}
	c.until[key] = now.Add(d)
	return 0, true
}

// Sweep forgets expired cooldowns and returns how many it removed.
func (c *Cooldowns) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, until := range c.until {
		if !now.Before(until) {
			delete(c.until, k)
			removed++
		}
	}
	return removed
}

func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.until)
}
