// Package log provides named per-service loggers on top of zap.
//
// Key Features
//
//   - Per service loggers via ForService(name)
//   - Automatic prefix in every line: `[name>]` (example: `[elastic>] cluster unreachable`)
//   - Convenience level helpers: Infof, Warnf, Errorf, Debugf
//   - Debug logging can be enabled globally (SetGlobalDebug) or per service
//     (EnableDebugFor / DisableDebugFor)
//   - Central output writer (SetOutput) that updates existing loggers
//
// Lines are rendered by zap's console encoder, so every entry carries a
// timestamp and a level column ahead of the service prefix.
//
// Basic Usage
//
//	log.SetGlobalDebug(true)
//
//	es := log.ForService("elastic")
//	es.Infof("connected to %s", url)
//	es.Warnf("unexpected total hits shape: %s", raw)
//	es.Debugf("search body: %s", body) // printed because global debug enabled
//
// Selective Debug
//
//	log.EnableDebugFor("elastic")
//	log.ForService("elastic").Debugf("visible")
//	log.ForService("web").Debugf("NOT visible")
//
// # Testing
//
// Tests can redirect output by calling SetOutput with a bytes.Buffer,
// enabling assertions on log contents. Existing loggers follow the new
// writer.
//
// NOTE: The package name intentionally collides with stdlib "log". When
// importing both, alias one of them.
package log
