package main

import "clvcast/cmd"

func main() {
	cmd.Execute()
}
