package main

import "github.com/timvw/kitty-mux/cmd"

func main() {
	cmd.Execute()
}
