// Package infra contains technical adapters such as metrics exporters,
// remote capability clients and run-log stores. These packages should
// depend only on the interfaces defined in the core packages.
package infra
