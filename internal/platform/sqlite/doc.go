// Package sqlite provides an on-disk reply cache for model invocations,
// backed by the pure-Go modernc.org/sqlite driver. The cache is a
// generation.Invoker decorator: identical prompts asking for the same output
// shape are answered from disk until their entry expires.
package sqlite
