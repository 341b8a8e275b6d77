package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"offerhub-backend/models"
	"offerhub-backend/services"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	statsWindow string
	statsFormat string
)

func rateLimitStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit-stats",
		Short: "Affiche les statistiques du rate limiter par client",
		Long: `Agrège les décisions du rate limiter stockées dans Redis.

Exemples:
  offerhubctl ratelimit-stats
  offerhubctl ratelimit-stats --window 2h --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := services.ParseStatsWindow(statsWindow)
			if err != nil {
				return err
			}

			redisClient, err := connectRedis(cmd.Context())
			if err != nil {
				return err
			}
			defer redisClient.Close()

			stats := services.NewRateLimitStats(redisClient, cfg.RateLimitStatsRetention)
			report, err := stats.Aggregate(cmd.Context(), window)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, statsFormat)
		},
	}

	cmd.Flags().StringVarP(&statsWindow, "window", "w", "15m", "fenêtre d'agrégation (1m à 24h)")
	cmd.Flags().StringVarP(&statsFormat, "format", "f", "table", "format de sortie (table, json, yaml)")

	return cmd
}

// writeReport écrit le rapport au format demandé
func writeReport(w io.Writer, report *models.RateLimitReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		fmt.Fprintf(w, "Fenêtre %s (%s -> %s): %d requêtes, %d refusées\n\n",
			report.Window, report.From.Format("15:04:05"), report.To.Format("15:04:05"), report.Total, report.Blocked)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CLIENT\tTOTAL\tREFUSÉES\tDERNIÈRE")
		for _, c := range report.Clients {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.Key, c.Total, c.Blocked, c.LastSeen.Format("15:04:05"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("format inconnu %q (table, json, yaml)", format)
	}
}
