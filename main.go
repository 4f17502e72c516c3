package main

import "github.com/notargets/fvadapt/cmd"

func main() {
	cmd.Execute()
}
