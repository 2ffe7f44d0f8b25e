package main

import (
	"github.com/jbattja/fugata-sub001/cmd"
)

func main() {
	cmd.Execute()
}
