// main - main entry-point to spectrocoin-callback commands through cobra
// individual commands are outlined in ./cmd/ and ./services/*/cmd/
package main

import (
	"github.com/brave-intl/spectrocoin-callback/cmd"
	"github.com/brave-intl/spectrocoin-callback/libs/logging"

	// pull in spectrocoin service
	_ "github.com/brave-intl/spectrocoin-callback/services/spectrocoin/cmd"
)

var (
	// variables will be overwritten at build time
	version   string
	commit    string
	buildTime string
)

func main() {
	defer func() {
		if logging.Writer != nil {
			logging.Writer.Close()
		}
	}()
	cmd.Execute(version, commit, buildTime)
}
