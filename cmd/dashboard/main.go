package main

import "live-dashboard/internal/cli"

func main() {
	cli.Execute()
}
