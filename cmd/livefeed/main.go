package main

import "github.com/livefeedai/livefeed/cmd/livefeed/commands"

func main() {
	commands.Execute()
}
