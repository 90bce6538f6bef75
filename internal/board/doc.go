// Package board defines the normalized physical geometry of a keyboard and
// loads it from HCL board files.
//
// A geometry is the already-resolved form this pipeline consumes: an ordered
// list of physical keys, each carrying its electrical matrix address, its
// sequential lighting index, and its physical placement in key-units.
// Converting vendor metadata into this format is a separate concern and lives
// outside this module.
package board
