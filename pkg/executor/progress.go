package executor

import (
	"PojClient/internal/models"
	"PojClient/pkg/utils"
)

func NewProgress() *Progress {
	return &Progress{}
}

// Subscribe returns a channel receiving a snapshot after every change. It is
// closed by Close. Subscribing after Close yields the final snapshot on an
// already closed channel.
func (p *Progress) Subscribe() <-chan models.TaskProgress {
	ch := make(chan models.TaskProgress, 16)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch <- p.counters
		close(ch)
		return ch
	}
	p.subscribers = append(p.subscribers, ch)
	return ch
}

func (p *Progress) Snapshot() models.TaskProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// Fraction is the share of tasks that reached a terminal state.
func (p *Progress) Fraction() float64 {
	s := p.Snapshot()
	if s.TotalTasks == 0 {
		return 0
	}
	return float64(s.VerifiedTasks+s.SkippedTasks+s.FailedTasks) / float64(s.TotalTasks)
}

func (p *Progress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
	p.closed = true
}

func (p *Progress) update(fn func(c *models.TaskProgress)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.counters)
	for _, ch := range p.subscribers {
		utils.TrySend(ch, p.counters)
	}
}

func (p *Progress) addTotal(n int) {
	p.update(func(c *models.TaskProgress) { c.TotalTasks += n })
}

func (p *Progress) downloaded(n int64) {
	p.update(func(c *models.TaskProgress) {
		c.Downloads++
		c.Bytes += n
	})
}

func (p *Progress) retried() {
	p.update(func(c *models.TaskProgress) { c.Retries++ })
}

func (p *Progress) finished(state TaskState) {
	p.update(func(c *models.TaskProgress) {
		switch state {
		case StateVerified:
			c.VerifiedTasks++
		case StateSkipped:
			c.SkippedTasks++
		case StateFailed:
			c.FailedTasks++
		}
	})
}
