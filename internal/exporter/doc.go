// Package exporter reads and writes the pipeline's file artifacts: the
// monthly dataset CSV, the processed/failed manifests and the auxiliary
// reports of the cleaning step.
//
// All writers replace their target atomically, so a failed run never leaves
// a half-written CSV behind.
package exporter
