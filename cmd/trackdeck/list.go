package main

import (
	"fmt"
	"strconv"

	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/glebovdev/trackdeck/internal/track"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the track catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to load config, using defaults")
			}

			tracks := track.Filter(cfg.Catalog(), search)
			if len(tracks) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No tracks match %q\n", search)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTrackTable(tracks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list tracks whose title contains this text")
	return cmd
}

func renderTrackTable(tracks []track.Track) string {
	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{strconv.Itoa(i + 1), t.Title, t.Artist, t.URL})
	}
	return renderTable(
		[]string{"#", "Title", "Artist", "URL"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
