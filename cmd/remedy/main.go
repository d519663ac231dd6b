package main

import "github.com/vietddude/remedy/internal/cli"

func main() {
	cli.Execute()
}
