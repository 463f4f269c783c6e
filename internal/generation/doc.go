// Package generation defines the boundary between the evolution pipeline and
// the external generative models (Gemini). It names the three capabilities the
// pipeline consumes through the Gateway interface (planning, image rendering and
// audio transcription), the tagged result type for renders, and the error
// taxonomy adapters must translate upstream failures into.
//
// Structured planning output is validated here, at the boundary, so that no
// unvalidated model data flows past the Gateway.
package generation
