// Package retention prunes old simulation runs from storage.
//
// The Pruner enforces two independent limits: a maximum age in days and a
// maximum record count. The Scheduler runs the pruner on a cron schedule.
package retention
