// Package results defines the stored form of a simulation run.
//
// A Record captures one run end to end: the submitted circuit and command,
// the classified outcome, the engine's diagnostic streams, and the result
// vectors for successful runs. Records are created with New before the run
// starts and completed with Finish afterwards, so every run is accounted
// for whether it succeeded or not.
package results
