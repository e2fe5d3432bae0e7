// Command cryptvfs is the CLI entrypoint; all command wiring lives in the
// parent cmd package so it stays testable independent of os.Exit.
package main

import "github.com/riftline/cryptvfs/cmd"

func main() {
	cmd.Execute()
}
