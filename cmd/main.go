package cmd

import (
	"flag"
	"strings"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Commands lists the subcommands of the application.
var Commands = []subcommands.Command{
	&gainsCmd{},
	&lotsCmd{},
	&chartCmd{},
	&fmtCmd{},
	&addCmd{},
	&importCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
}

// Completion returns the shell completion of the application, derived from
// the flags of each subcommand.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: map[string]complete.Predictor{"config": predict.Files("*.toml")},
	}
	for _, c := range Commands {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		f.VisitAll(func(fl *flag.Flag) {
			sub.Flags[fl.Name] = predictFlag(fl)
		})
		if c.Name() == "import" {
			sub.Args = predict.Files("*.json")
		}
		root.Sub[c.Name()] = sub
	}
	return root
}

// predictFlag guesses the values of a flag from its name and usage.
func predictFlag(fl *flag.Flag) complete.Predictor {
	switch {
	case fl.Name == "period":
		return predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"}
	case fl.Name == "kind":
		return predict.Set{"buy", "sell"}
	case fl.Name == "fallback":
		return predict.Set{"fail", "zero-cost"}
	case fl.Name == "mapping":
		return predict.Files("*.toml")
	case strings.Contains(fl.Usage, "PNG"):
		return predict.Files("*.png")
	case strings.Contains(fl.Usage, "HTML"):
		return predict.Files("*.html")
	case strings.Contains(fl.Usage, "JSONL"):
		return predict.Files("*.jsonl")
	}
	if bf, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
		return predict.Nothing
	}
	return predict.Something
}
