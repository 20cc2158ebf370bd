// Command classregctl is the operator CLI for a running classreg server:
// it derives account ids, mints bearer tokens and reads or updates students.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
