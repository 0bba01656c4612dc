package main

import "github.com/diogo/iqrachat/internal/commands"

func main() {
	commands.Execute()
}
