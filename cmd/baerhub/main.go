package main

import "baerhub/internal/cmd"

func main() {
	cmd.Run()
}
