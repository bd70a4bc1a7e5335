package progress

import "testing"

func TestNewBroadcasterStartsEmpty(t *testing.T) {
	b := New()
	if got := b.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
}

func TestPublishWithNoClientsDoesNotPanic(t *testing.T) {
	b := New()
	b.Publish(Event{Kind: "started", ProblemID: "p1"})
}
