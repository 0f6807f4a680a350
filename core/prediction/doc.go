// Package prediction defines the optional demand-signal capability. A
// DemandPredictor reports regions whose demand is anomalous; the scored
// allocator boosts requests from those regions. Predictions are optional:
// None is the null object used when no service is configured, and a failing
// predictor only disables the boost.
package prediction
