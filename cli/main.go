package main

import "github.com/ponyo877/vivachat/cli/cmd"

func main() {
	cmd.Execute()
}
