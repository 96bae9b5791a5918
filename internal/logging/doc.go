// Package logging builds the application's slog loggers and centralizes
// attribute helpers and field-name constants.
//
// Components receive a *slog.Logger and scope it with NewComponentLogger;
// tests use NewNop. Output format (json or text) and level come from the
// [logging] config section.
package logging
