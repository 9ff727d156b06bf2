package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/storage"
)

var (
	flagPlayer string
	flagLimit  int
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Show recorded match results",
	Long: `Display the most recent matches, or one player's history and totals.

Examples:
  pong matches
  pong matches --limit 50
  pong matches --player alice`,
	Args: cobra.NoArgs,
	RunE: runMatches,
}

func init() {
	matchesCmd.Flags().StringVar(&flagPlayer, "player", "", "Show history and stats for this player id")
	matchesCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of matches to show")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func runMatches(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("cannot open match database: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	var records []storage.MatchRecord
	if flagPlayer != "" {
		stats, err := store.PlayerStats(ctx, flagPlayer)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d matches, %d wins, %d losses, points %d-%d\n\n",
			stats.PlayerID, stats.Matches, stats.Wins, stats.Losses, stats.PointsFor, stats.PointsAgainst)

		records, err = store.PlayerMatchHistory(ctx, flagPlayer, flagLimit)
		if err != nil {
			return err
		}
	} else {
		records, err = store.RecentMatches(ctx, flagLimit)
		if err != nil {
			return err
		}
	}

	if len(records) == 0 {
		fmt.Println("No matches recorded yet.")
		return nil
	}

	fmt.Println(matchTable(records))
	return nil
}

func matchTable(records []storage.MatchRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ENDED", "TYPE", "PLAYER 1", "SCORE", "PLAYER 2", "WINNER", "REASON", "TIME").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range records {
		winner := r.WinnerID
		if winner == "" {
			winner = "-"
		}
		t.Row(
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.GameType,
			r.Player1ID,
			strconv.Itoa(r.Score1)+" - "+strconv.Itoa(r.Score2),
			r.Player2ID,
			winner,
			r.EndReason,
			r.Duration.Round(time.Second).String(),
		)
	}
	return t.Render()
}
