package main

import "pet-adoption-marketplace/internal/cli"

func main() {
	cli.Execute()
}
