package main

import "github.com/oneilljw/homecontrol/cmd"

func main() {
	cmd.Execute()
}
