package main

import "github.com/lvh-project/lvh/cmd"

func main() {
	cmd.Execute()
}
