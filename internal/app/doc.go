// Package app wires the record store, seal, backup manager and spreadsheet
// synchronizer into the operations the CLI exposes.
//
// Service is the single context object for a session. It owns the store
// handle and synchronizer and passes each component only the data it
// needs. Scheduler runs the recurring backup against a Service.
package app
