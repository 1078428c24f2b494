// Package file provides the file-backed ConfigStore.
//
// The file format follows the extension: .yaml and .yml files are read
// and written as YAML, everything else as TOML.
package file
