package main

import "github.com/mcpshield/mcpshield/cmd/mcpshield/cmd"

func main() {
	cmd.Execute()
}
