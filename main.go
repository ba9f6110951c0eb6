package main

import "github.com/oar-cd/shipyard/cmd/root"

func main() {
	root.Execute()
}
