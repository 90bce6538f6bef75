// Package keycode defines the keycode token grammar and the resolver used to
// validate, search, and describe tokens.
//
// A token is either a simple named keycode (KC_A, KC_ENTER) or a
// parameterized composite (MT, LT, MO, TG, TO, OSL, DF, TD, OSM, or a
// modifier wrapper such as LCTL). Tokens are parsed once into a tagged
// variant; layer targets inside composites stay symbolic (numeric index or
// stable layer identifier) until they are rendered for emission.
package keycode
