// Package config defines the explicit inputs of a release run: build and
// release directories, the ordered target list, the flash layout with
// fragment offsets, and the external toolchain command. Settings are read
// from a YAML file with sensible ESP32 defaults and optional environment
// overrides for directories.
package config
