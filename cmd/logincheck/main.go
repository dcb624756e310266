// Package main provides the entry point for the logincheck CLI.
//
// logincheck drives a real Chrome instance against the Marketeers agency
// login page, submits the known-good credential pair, and reports whether
// the login flow still lands on the dashboard.
//
// Usage:
//
//	logincheck check
//	logincheck check staging.yaml --markdown
//	logincheck history
//
// See --help for all available options.
package main

// main is the entry point for logincheck.
func main() {
	Execute()
}
