// Package mocks provides hand-written test doubles for the application's
// ports. They record every call so tests can assert on how many times, and
// with what arguments, a collaborator was used.
package mocks
