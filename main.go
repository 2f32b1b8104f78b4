package main

import "maidchan/cmd"

func main() {
	cmd.Execute()
}
