package main

import "github.com/RyanBlaney/sonido-lpc/cmd"

func main() {
	cmd.Execute()
}
