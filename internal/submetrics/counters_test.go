package submetrics

import (
	"sync"
	"testing"
)

func TestSubscriptionStartedIncrementsActiveAndTotal(t *testing.T) {
	c := New()
	c.SubscriptionStarted("agent-1")
	c.SubscriptionStarted("agent-1")
	c.SubscriptionStarted("agent-2")

	snap := c.Snapshot()
	if snap.Active != 3 {
		t.Errorf("Active = %d, want 3", snap.Active)
	}
	if snap.TotalCreated != 3 {
		t.Errorf("TotalCreated = %d, want 3", snap.TotalCreated)
	}
	if snap.ActiveByAgent["agent-1"] != 2 {
		t.Errorf("ActiveByAgent[agent-1] = %d, want 2", snap.ActiveByAgent["agent-1"])
	}
	if snap.ActiveByAgent["agent-2"] != 1 {
		t.Errorf("ActiveByAgent[agent-2] = %d, want 1", snap.ActiveByAgent["agent-2"])
	}
}

func TestSubscriptionEndedGCsZeroEntries(t *testing.T) {
	c := New()
	c.SubscriptionStarted("agent-1")
	c.SubscriptionEnded("agent-1")

	snap := c.Snapshot()
	if snap.Active != 0 {
		t.Errorf("Active = %d, want 0", snap.Active)
	}
	if _, ok := snap.ActiveByAgent["agent-1"]; ok {
		t.Error("expected agent-1 to be removed from the per-agent map once it hits 0")
	}
}

func TestSubscriptionEndedDoesNotUnderflow(t *testing.T) {
	c := New()
	c.SubscriptionEnded("never-started")
	c.SubscriptionEnded("never-started")

	snap := c.Snapshot()
	if snap.Active != 0 {
		t.Errorf("Active = %d, want 0 (no underflow)", snap.Active)
	}
}

func TestMessageSentAccumulatesBytes(t *testing.T) {
	c := New()
	c.MessageSent(10)
	c.MessageSent(20)

	snap := c.Snapshot()
	if snap.TotalMessages != 2 {
		t.Errorf("TotalMessages = %d, want 2", snap.TotalMessages)
	}
	if snap.TotalBytes != 30 {
		t.Errorf("TotalBytes = %d, want 30", snap.TotalBytes)
	}
}

func TestSubscriptionFailedIncrementsFailed(t *testing.T) {
	c := New()
	c.SubscriptionFailed()
	if c.Snapshot().Failed != 1 {
		t.Errorf("Failed = %d, want 1", c.Snapshot().Failed)
	}
}

func TestCountersConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SubscriptionStarted("agent-x")
			c.MessageSent(5)
			c.SubscriptionEnded("agent-x")
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.Active != 0 {
		t.Errorf("Active = %d, want 0 after equal starts/ends", snap.Active)
	}
	if snap.TotalCreated != 50 {
		t.Errorf("TotalCreated = %d, want 50", snap.TotalCreated)
	}
	if snap.TotalMessages != 50 {
		t.Errorf("TotalMessages = %d, want 50", snap.TotalMessages)
	}
}
