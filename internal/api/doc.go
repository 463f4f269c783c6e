// Package api handles incoming HTTP requests for the design evolution loop:
// feedback submission, status polling and streaming, image delivery and
// voice transcription. It translates HTTP concerns to service calls and
// service errors back to status codes.
package api
