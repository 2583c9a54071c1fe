package main

import "flowscreen/internal/cli"

func main() {
	cli.Execute()
}
