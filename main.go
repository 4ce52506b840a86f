package main

import "github.com/RyanBlaney/tremor-analyzer/cmd"

func main() {
	cmd.Execute()
}
