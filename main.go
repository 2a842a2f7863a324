package main

import "github.com/numflux/galerkin/cmd"

func main() {
	cmd.Execute()
}
