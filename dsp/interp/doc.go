// Package interp provides fractional-position interpolation for sample
// playback at arbitrary rates.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite
//
// [Mode] selects one of them at construction time.
package interp
