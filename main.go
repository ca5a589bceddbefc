package main

import "github.com/straying-cloud/sitemirror/cmd"

func main() {
	cmd.Execute()
}
