// ABOUTME: Entry point for the tuneplay command
// ABOUTME: Hands control to the cobra command tree
package main

import "github.com/Resonate-Protocol/tuneplay/internal/cli"

func main() {
	cli.Execute()
}
