// Package events defines the notifications published on the event bus while
// an allocation run progresses.
//
// Available event types:
//   - AllocationEvent: one allocation record was produced
//   - TransferEvent: one transfer planning run completed
//   - RunEvent: a strategy run started or finished
package events
