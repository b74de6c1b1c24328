package scraper

import (
	"fmt"
	"time"
)

// Signal is the result of evaluating a halt condition against one event.
// It is created per evaluated event and never persisted.
type Signal struct {
	Stop   bool
	Reason string
}

func Continue() Signal {
	return Signal{Stop: false, Reason: "no halt condition has been met"}
}

func StopBecause(format string, args ...any) Signal {
	return Signal{Stop: true, Reason: fmt.Sprintf(format, args...)}
}

// HaltCondition decides, per scraped event, whether a scraper should stop
// pulling more data from its source.
type HaltCondition interface {
	ShouldStop(e Event) Signal
}

type maxCountCondition struct {
	max   int
	count int
}

// MaxCount stops after n events have been evaluated. The counter is scoped
// to one scraper run, so a fresh condition must be built per run.
func MaxCount(n int) HaltCondition {
	return &maxCountCondition{max: n}
}

func (c *maxCountCondition) ShouldStop(e Event) Signal {
	c.count++
	if c.count >= c.max {
		return StopBecause("scraped the maximal number of events (%d)", c.max)
	}
	return Continue()
}

type maxStartTimeCondition struct {
	max time.Time
}

// MaxStartTime stops once an evaluated event starts after the cutoff instant.
func MaxStartTime(max time.Time) HaltCondition {
	return &maxStartTimeCondition{max: max}
}

func (c *maxStartTimeCondition) ShouldStop(e Event) Signal {
	if e.StartTime.After(c.max) {
		return StopBecause("event start time (%s) is after the max time (%s)", e.StartTime, c.max)
	}
	return Continue()
}

type unionCondition struct {
	conditions []HaltCondition
}

// Union combines conditions with a short-circuit OR: members are evaluated
// in declaration order and the first stop signal wins. Member order only
// affects which reason is reported, never whether the union stops.
func Union(conditions ...HaltCondition) HaltCondition {
	return &unionCondition{conditions: conditions}
}

func (c *unionCondition) ShouldStop(e Event) Signal {
	for _, condition := range c.conditions {
		if signal := condition.ShouldStop(e); signal.Stop {
			return signal
		}
	}
	return Continue()
}
