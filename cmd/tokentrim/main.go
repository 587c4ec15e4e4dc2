package main

import "tokentrim/internal/cli"

func main() {
	cli.Execute()
}
