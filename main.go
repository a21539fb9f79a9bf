package main

import (
	"github.com/astock/abot/entry"
)

func main() {
	entry.RunCmd()
}
