// sk-cem draws exactly matched control articles for retracted articles that
// mention software and writes an anonymized table of their mentions.
//
//	$ sk-cem run -c cemkit.yaml
//	$ sk-cem fetch -y 2000 -Y 2019
//	$ echo "The Journal of Foo & Bar (2nd Ed)" | sk-cem normalize
package main

import (
	"github.com/miku/cemkit"
	"github.com/miku/cemkit/config"
	"github.com/rotisserie/eris"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        *config.Config
)

// flagKeys binds command line flags to configuration keys.
var flagKeys = map[string]string{
	"matching.seed":        "seed",
	"matching.sample_size": "sample-size",
	"matching.workers":     "workers",
	"outputs.table":        "output",
	"log.level":            "log-level",
	"data_dir":             "data-dir",
	"fetch.url_template":   "url",
}

var rootCmd = &cobra.Command{
	Use:           "sk-cem",
	Short:         "Coarsened exact matching of retracted and non-retracted articles",
	Long:          "Builds a treated set of retracted articles with software mentions, draws exactly matched controls by year, domain and journal rank percentile, and writes an anonymized mention table.",
	Version:       cemkit.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := config.New(configFile)
		for key, name := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return eris.Wrapf(err, "bind flag %s", name)
				}
			}
		}
		c, err := config.Load(v)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file, default: ./cemkit.yaml or xdg config dir")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("data-dir", config.DefaultDataDir, "data directory")
	rootCmd.AddCommand(runCmd, fetchCmd, normalizeCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
