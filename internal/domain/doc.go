// Package domain contains the core entities of the design evolution loop:
// the evolving preference profile ("design DNA"), the plan items proposed
// for each round, rendered image results, and the task record that polling
// clients observe. It is independent of any transport or storage mechanism.
package domain
