// Package directory contains the organization directory domain: buildings,
// phones, the hierarchical activity catalogue and the organizations linking
// them together.
package directory
