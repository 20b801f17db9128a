package main

import (
	"os"

	"github.com/VladMinzatu/calltree/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
