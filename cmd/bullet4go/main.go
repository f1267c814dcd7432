// Package main provides the bullet4go CLI for inspecting stored N+1 findings.
//
// The CLI supports:
//   - findings recent: list the latest request summaries
//   - findings top: rank findings by how many requests reported them
//   - findings show: print one request summary
//   - findings clear: remove everything under the configured key prefix
//   - config show: print the effective configuration
//
// Findings are written to Redis by applications that install the tracking
// middleware with a store notifier.
package main

func main() {
	Execute()
}
