// Package gemini provides an implementation of the generation.Gateway
// interface backed by Google's Gemini API.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the pipeline to the external planning, image and transcription
// models without exposing the details of the external service to the core
// application.
//
// Key components:
//
// 1. Gateway:
//   - Implements generation.Gateway on top of google.golang.org/genai
//   - Requests structured JSON for planning and transcription
//   - Requests the IMAGE response modality for renders
//
// 2. Prompt Management:
//   - Prompt templates are embedded in the binary
//   - The planning template can be overridden from a file
//
// 3. Error Handling:
//   - Upstream API errors are classified as transient or permanent so the
//     caller's retrier knows what to retry
//   - Safety blocks surface as generation.ErrContentBlocked
//
// The adapter performs no retries of its own.
package gemini
