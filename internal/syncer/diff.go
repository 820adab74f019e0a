package syncer

import "yagsync/internal/calendar"

// keyedEvents is a last-wins map over identity keys that remembers the order
// keys were first seen, so duplicate collapse and diff output stay
// deterministic in fetch order rather than depending on map iteration.
type keyedEvents struct {
	byKey map[calendar.Key]calendar.Event
	order []calendar.Key
}

func keyEvents(events []calendar.Event) keyedEvents {
	ke := keyedEvents{byKey: make(map[calendar.Key]calendar.Event, len(events))}
	for _, ev := range events {
		k := ev.Key()
		if _, seen := ke.byKey[k]; !seen {
			ke.order = append(ke.order, k)
		}
		ke.byKey[k] = ev
	}
	return ke
}

// missingFrom returns, in first-seen order, the events of ke whose keys are
// absent from other.
func (ke keyedEvents) missingFrom(other keyedEvents) []calendar.Event {
	var missing []calendar.Event
	for _, k := range ke.order {
		if _, ok := other.byKey[k]; !ok {
			missing = append(missing, ke.byKey[k])
		}
	}
	return missing
}

// Diff computes the symmetric difference of two event batches by identity
// key. Duplicate keys within one batch collapse last-wins. The returned
// slices preserve the batches' fetch order.
func Diff(a, b []calendar.Event) (missingInB, missingInA []calendar.Event) {
	keysA := keyEvents(a)
	keysB := keyEvents(b)
	return keysA.missingFrom(keysB), keysB.missingFrom(keysA)
}
