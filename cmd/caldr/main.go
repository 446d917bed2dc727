package main

import "caldr/cmd/caldr/cmd"

func main() {
	cmd.Execute()
}
