// Package projection derives epoch timing and income estimates from a
// network snapshot and a spot price.
//
// epoch.go provides ComputeEpochWindow, which places an epoch number on the
// wall clock relative to a known anchor epoch. The clock is always passed in
// so results are reproducible in tests.
//
// income.go provides ComputeIncome: per-it/s income, daily income from
// hashrate, income per solution under either pricing method, expected daily
// solutions and luckiness.
//
// Every derived figure is an Amount. Division by zero and non-finite results
// become N/A instead of leaking NaN or Inf to the display layer.
package projection
