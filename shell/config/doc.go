// Package config provides connection configuration for the reservation queue processes.
//
// DSNs come from the environment, pool tuning follows fixed defaults. It also builds the
// OpenTelemetry providers the observability adapters are created from.
//
// This package is part of the shell (infrastructure) layer.
package config
