package main

import "github.com/ajvierra/quartermaster/internal/adapters/cli"

func main() {
	cli.Execute()
}
