// Command redoscheck reports regexps whose matching time is not linear in
// the length of the input, a precondition for ReDoS.
//
// Usage:
//
//	# Analyze a single pattern
//	redoscheck analyze '(a+)+b'
//
//	# Check Ruby sources for non-linear regexp literals
//	redoscheck check app/ lib/
//
//	# Treat unanalyzable regexps as offenses, report as JSON
//	redoscheck check --strict --json .
//
//	# Serve the analyzer over HTTP
//	redoscheck serve --addr :8080
//
// Exit codes: 0 when nothing was reported, 1 when offenses were found,
// 2 on errors.
package main

import "os"

func main() {
	os.Exit(Execute())
}
