// Package config loads runtime settings for a procurement mesh.
//
// Settings come from three layers, later layers winning: compiled-in
// defaults, an optional YAML file, and PROCUREMESH_* environment
// variables. A .env file in the working directory is folded into the
// environment before overrides are read.
package config
