package main

import "eventsapi/cmd"

func main() {
	cmd.Execute()
}
