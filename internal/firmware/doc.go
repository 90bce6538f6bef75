// Package firmware turns a validated layout into firmware source text: a
// key-assignment table emitted in lighting-index order and a settings header
// merging layout-level configuration with board overrides.
//
// The generator assumes its input already passed validation and does not
// re-validate; it fails eagerly on anything that would otherwise produce
// structurally invalid source, most notably a layer identifier with no
// matching layer.
package firmware
