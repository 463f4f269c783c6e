// Package events provides in-process notification of task status changes.
//
// The registry publishes every new Task snapshot through an EventEmitter;
// handlers registered with the emitter react to them without the registry
// knowing who listens. The Subscriptions handler fans snapshots out to
// per-task channels, which back the WebSocket status stream.
//
// The primary components are:
// - TaskStatusEvent: a published Task snapshot
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
