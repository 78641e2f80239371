// The main package for the rulingcrawler executable.
package main

import (
	_ "time/tzdata" // Asia/Jakarta without a system tz database

	"github.com/JakeFAU/court-ruling-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
