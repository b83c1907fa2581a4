// Package output renders command results as a table, JSON or YAML.
//
// JSON and YAML use the json struct tags of the rendered value, so a type
// only needs one set of tags. Tables are built by values that implement
// Tabler; anything else falls back to JSON.
package output
