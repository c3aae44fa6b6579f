// Package interp provides the fractional-sample interpolation used by
// delay lines.
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (default)
//
// [Mode] selects the method at construction time of a delay line.
package interp
