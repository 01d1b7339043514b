// Package buildinfo emits the generated build record (version, timestamp,
// build number, VCS identity) that the firmware build step compiles in.
package buildinfo
