// Package task manages background job queuing and processing.
// It provides mechanisms for asynchronous execution of long-running operations
// like planning and rendering an evolution round, ensuring they don't block
// HTTP request handling. Tasks live in memory only; nothing survives a restart.
package task
