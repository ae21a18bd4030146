package main

import (
	"github.com/mj1618/component-inspector/cmd"
	_ "github.com/mj1618/component-inspector/internal/demoapp"
)

func main() {
	cmd.Execute()
}
