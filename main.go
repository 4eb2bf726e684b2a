package main

import "cropintel/internal/cli"

func main() {
	cli.Execute()
}
