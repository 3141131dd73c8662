package main

import "github.com/nutrilens/nlens/cmd"

func main() {
	cmd.Execute()
}
