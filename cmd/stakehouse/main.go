// Command stakehouse operates a proportional reward pool from the shell.
package main

import "github.com/bitfsorg/stakehouse-go/cli"

func main() {
	cli.Execute()
}
