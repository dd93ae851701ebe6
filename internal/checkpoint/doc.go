// Package checkpoint persists per-segment completion status so an
// interrupted run can resume without repeating finished work.
//
// The state lives in one human-inspectable YAML file keyed by segment,
// rewritten atomically after every mutation. A sibling lock file rejects a
// second concurrent run against the same checkpoint.
package checkpoint
