// Package main provides the mlc CLI: compile, analyze, and run ML scripts
// under capability-based sandboxing.
package main

func main() {
	Execute()
}
