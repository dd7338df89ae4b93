package main

import "github.com/marcus-crane/lure/cmd"

func main() {
	cmd.Execute()
}
