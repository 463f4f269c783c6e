// Package retry provides the single resilience primitive used for every
// upstream model call: classify each failure, back off exponentially on
// transient overload, and give up immediately on anything else.
//
// The retrier is generic over the operation's result type so the same
// policy wraps planning, rendering and transcription calls without any
// knowledge of their payloads.
package retry
