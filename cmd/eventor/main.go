package main

import "eventor/internal/cli"

func main() {
	cli.Execute()
}
