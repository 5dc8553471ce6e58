package main

import (
	"github.com/nadinev6/RAGgle/cmd"
)

func main() {
	cmd.Execute()
}
