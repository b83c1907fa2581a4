// Package confloader loads layered configuration and watches files.
//
// Loader merges, from lowest to highest priority: defaults, a YAML file,
// STATEVAULT_ environment variables and explicit overrides, then unmarshals
// the result into a struct with koanf tags.
//
// Watcher wraps fsnotify and reports files created or written in watched
// directories.
package confloader
