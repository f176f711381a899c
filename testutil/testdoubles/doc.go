// Package testdoubles contains spies for the observability and publishing interfaces.
// All spies are safe for concurrent use.
package testdoubles
