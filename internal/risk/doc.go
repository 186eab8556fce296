// Package risk combines several independent, partially-failable checks on
// a legal entity into a single overall risk level. The level is a pure
// function of the distinct risk-factor count; errored checks mark the
// assessment incomplete instead of contributing factors.
package risk
