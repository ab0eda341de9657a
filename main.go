package main

import "github.com/RyanBlaney/sonido-mmir/cmd"

func main() {
	cmd.Execute()
}
