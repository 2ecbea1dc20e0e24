package parser

import (
	"fmt"
	"sync"
	"time"

	"github.com/rosshhun/docktail-go/internal/metrics"
)

// confidenceTag tracks how firmly a cache entry's format is locked in.
type confidenceTag int

const (
	tagNone confidenceTag = iota
	tagProvisional
	tagHigh
)

// entry is one container's parser cache record (spec §4.3).
type entry struct {
	format          Format
	tag             confidenceTag
	sample          [][]byte
	sinceRefinement int
}

// Cache holds a per-container format handle for the lifetime of the agent
// process. An entry is dropped only by an explicit Evict call; nothing in
// the agent calls Evict when a container is removed, so entries for removed
// containers stay until the process exits.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	Stats   Stats
}

// New creates an empty parser Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Evict drops a container's cached format, e.g. on container removal.
func (c *Cache) Evict(containerID string) {
	c.mu.Lock()
	delete(c.entries, containerID)
	c.mu.Unlock()
}

// ParseLine runs the detection/caching algorithm (spec §4.3) for one raw
// line from containerID, then parses it with the resolved format. A panic
// inside the per-format parser is caught, counted, and surfaces as an
// error rather than crashing the agent.
func (c *Cache) ParseLine(containerID string, line []byte) (pl ParsedLog, format Format, err error) {
	format = c.resolveFormat(containerID, line)

	defer func() {
		if r := recover(); r != nil {
			c.Stats.RecordPanic()
			c.Stats.RecordFailure()
			err = fmt.Errorf("parser: recovered panic parsing %s line: %v", format, r)
		}
	}()

	start := time.Now()
	pl, err = Parse(format, line)
	metrics.ParseDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	metrics.ParsedLinesTotal.WithLabelValues(string(format)).Inc()
	if err != nil {
		c.Stats.RecordFailure()
	} else {
		c.Stats.RecordSuccess()
	}
	return pl, format, err
}

func (c *Cache) resolveFormat(containerID string, line []byte) Format {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[containerID]
	if !ok {
		e = &entry{}
		c.entries[containerID] = e
	}

	// Step 1: a high-confidence lock always wins.
	if e.tag == tagHigh {
		return e.format
	}

	// Provisional lock: keep using it, but count toward adaptive
	// refinement and re-evaluate every AdaptiveRefinementSize lines.
	if e.tag == tagProvisional {
		e.sinceRefinement++
		e.sample = append(e.sample, append([]byte(nil), line...))
		if e.sinceRefinement < AdaptiveRefinementSize {
			return e.format
		}
		format, avg := classify(e.sample)
		e.sample = nil
		e.sinceRefinement = 0
		e.format = format
		if avg >= HighConfidenceThreshold {
			e.tag = tagHigh
		}
		// Else stays provisional with the (possibly new) format.
		return e.format
	}

	// No lock yet: accumulate a detection sample.
	e.sample = append(e.sample, append([]byte(nil), line...))
	if len(e.sample) < DetectionSampleSize {
		// Not enough samples yet; best-effort single-line classification.
		format, _ := classify(e.sample)
		return format
	}

	format, avg := classify(e.sample)
	e.sample = nil
	switch {
	case avg >= HighConfidenceThreshold:
		e.tag = tagHigh
		e.format = format
	case avg >= MediumConfidenceThreshold:
		e.tag = tagProvisional
		e.format = format
		e.sinceRefinement = 0
	default:
		e.tag = tagProvisional
		e.format = FormatPlainText
		e.sinceRefinement = 0
	}
	return e.format
}
