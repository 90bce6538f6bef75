// Package coords builds the three-space coordinate mapping for a board:
// lighting index, electrical matrix address, and visual grid address.
//
// The mapping is derived once per (board, layout variant) and read-only
// afterwards. Building never fails; malformed geometry (too few keys, visual
// collisions) surfaces later as validation errors against a layout.
package coords
