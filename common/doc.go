// Package common holds process-wide helpers shared by the binaries: build
// version, package name and logger setup.
package common
