package main

import (
	"memtree/app"
)

func main() {
	app.Start()
}
