package main

import "github.com/liftedinit/chainstore/cmd/chainstore"

func main() {
	chainstore.Execute()
}
