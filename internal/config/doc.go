// Package config defines the statevault configuration: the storage root and
// backend, retention bound, checksum algorithm, current snapshot schema,
// record encryption and logging.
//
// Configuration is read by Load (YAML file, STATEVAULT_ environment
// variables, explicit overrides) and checked by Verify.
package config
