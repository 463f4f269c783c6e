// Package service contains the application use cases of the design
// evolution loop. EvolutionService is the inbound boundary: it accepts
// feedback, answers status polls, serves stored artifacts and transcribes
// audio, delegating the long-running work to the task package.
//
// Service methods return sentinel errors for expected conditions so that the
// API layer can map them to HTTP status codes with errors.Is; unexpected
// failures are wrapped in ServiceError.
package service
