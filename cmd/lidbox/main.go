// Command lidbox extracts features from spoken language datasets and trains,
// evaluates and applies language classifiers on them.
package main

import (
	"os"

	"github.com/maruel/subcommands"
)

var application = &subcommands.DefaultApplication{
	Name:  "lidbox",
	Title: "Spoken language identification toolbox.",
	Commands: []*subcommands.Command{
		cmdExtract,
		cmdDimSizes,
		cmdVocab,
		cmdTrain,
		cmdEvaluate,
		cmdPredict,
		cmdExport,
		subcommands.CmdHelp,
	},
}

func main() {
	os.Exit(subcommands.Run(application, nil))
}
