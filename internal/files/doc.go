// Package files finds workbooks in data directories and moves them around
// safely: lock files are skipped, listings are name-ordered, and
// destination names are never overwritten when UniquePath is used.
package files
