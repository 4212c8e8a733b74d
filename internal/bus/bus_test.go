package bus

import "testing"

func TestSubscribePublish(t *testing.T) {
	b := New()

	var created, all []Event
	b.Subscribe(LayerCreated, func(e Event) { created = append(created, e) })
	b.SubscribeAll(func(e Event) { all = append(all, e) })

	b.Publish(Event{Kind: LayerCreated, LayerID: "a", Name: "Alpha"})
	b.Publish(Event{Kind: LayerDeleted, LayerID: "a"})

	if len(created) != 1 {
		t.Fatalf("Expected 1 created event, got %d", len(created))
	}
	if created[0].LayerID != "a" || created[0].Name != "Alpha" {
		t.Errorf("Unexpected event payload: %+v", created[0])
	}
	if len(all) != 2 {
		t.Errorf("Expected wildcard to see 2 events, got %d", len(all))
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	count := 0
	unsub := b.Subscribe(LayerCreated, func(Event) { count++ })

	b.Publish(Event{Kind: LayerCreated})
	unsub()
	b.Publish(Event{Kind: LayerCreated})

	if count != 1 {
		t.Errorf("Expected 1 delivery, got %d", count)
	}

	// double unsubscribe is harmless
	unsub()
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := New()

	delivered := false
	b.Subscribe(LayerCreated, func(Event) { panic("boom") })
	b.Subscribe(LayerCreated, func(Event) { delivered = true })

	b.Publish(Event{Kind: LayerCreated})

	if !delivered {
		t.Error("Handler after a panicking one was not called")
	}
}
