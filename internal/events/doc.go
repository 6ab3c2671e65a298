// Package events carries domain events between the sweeper and whatever
// reacts to them.
//
// The sweeper emits an Event per task that enters the reminder window; the
// notify package registers a handler that turns those events into outgoing
// messages. Neither side imports the other.
package events
