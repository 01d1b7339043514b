// Package compose assembles independently built binary fragments into one
// composite flash image laid out at absolute byte offsets, the file a device
// programmer writes to offset zero of the flash chip.
//
// The layout is validated against the measured fragment sizes before any
// byte is written: overlapping ranges and missing source files are rejected
// up front rather than discovered in a half-written image.
package compose
