package main

import "tripsplit/internal/cli"

func main() {
	cli.Execute()
}
