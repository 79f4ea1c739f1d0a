package main

import "go-circuit-lab/cmd/circuitctl/cmd"

func main() {
	cmd.Execute()
}
