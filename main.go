package main

import (
	_ "golang.org/x/crypto/x509roots/fallback"

	"satori/cmd"
)

// Version can be set during build with -ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
