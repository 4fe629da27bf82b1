package main

import "block-explorer/cmd/explorer"

func main() {
	explorer.Execute()
}
