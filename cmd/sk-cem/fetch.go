package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/miku/cemkit/tabular"
	"github.com/rotisserie/eris"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	fetchFrom  int
	fetchTo    int
	fetchForce bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download yearly journal rank tables into the data dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchTo < fetchFrom {
			return eris.Errorf("invalid year range %d-%d", fetchFrom, fetchTo)
		}
		dir := filepath.Join(cfg.DataDir, "ranks")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrap(err, "create rank dir")
		}
		opener := &tabular.Opener{Client: tabular.NewClient(cfg.Fetch.MaxRetries, cfg.Fetch.Timeout)}
		for year := fetchFrom; year <= fetchTo; year++ {
			dst := filepath.Join(dir, fmt.Sprintf("scimagojr %d.csv", year))
			if _, err := os.Stat(dst); err == nil && !fetchForce {
				log.WithField("file", dst).Debug("already cached")
				continue
			}
			link := fmt.Sprintf(cfg.Fetch.URLTemplate, year)
			log.WithFields(log.Fields{"year": year, "url": link}).Info("fetching rank table")
			if err := opener.Download(link, dst); err != nil {
				return eris.Wrapf(err, "fetch %d", year)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVarP(&fetchFrom, "from", "y", 2000, "first year")
	fetchCmd.Flags().IntVarP(&fetchTo, "to", "Y", 2019, "last year")
	fetchCmd.Flags().BoolVarP(&fetchForce, "force", "f", false, "download even if cached")
	fetchCmd.Flags().StringP("url", "u", "", "url template with a %d for the year")
}
