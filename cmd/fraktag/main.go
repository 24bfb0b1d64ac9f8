package main

import "fraktag/internal/cli"

func main() {
	cli.Execute()
}
