// Package batch runs a tool operation over several ids and reports each
// item's outcome, so one failing task does not hide the others.
package batch
