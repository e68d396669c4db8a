// Command actorsim runs the ordinal-valuation actor economy: a population of
// actors with ranked goal hierarchies that satisfy goals from inventory or
// trade for what they lack.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
