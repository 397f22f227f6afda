package main

import "github.com/kompline/kompline/cmd"

func main() {
	cmd.Execute()
}
