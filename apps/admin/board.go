package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/gongbuapp/gongbu/core/leaderboard"
	"github.com/gongbuapp/gongbu/core/session"
)

// showBoard prints the current standings.
func (cli *commandLine) showBoard(w session.Window, topN int, bySchool bool) error {
	ctx := context.Background()

	if bySchool {
		boards, err := cli.boardSvc.GenerateSchools(ctx, w, topN)
		if err != nil {
			return err
		}
		for _, board := range boards {
			fmt.Fprintf(cli.out, "%s\n", board.School)
			cli.printEntries(board.Entries, true)
		}
		return nil
	}

	entries, err := cli.boardSvc.Generate(ctx, w, topN)
	if err != nil {
		return err
	}
	cli.printEntries(entries, false)
	return nil
}

func (cli *commandLine) printEntries(entries []leaderboard.Entry, bySchool bool) {
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCHOOL\tSCORE\tCONSISTENCY\tQUALITY\tENGAGEMENT\tSTREAK")
	for _, e := range entries {
		rank := e.Rank
		if bySchool {
			rank = e.SchoolRank
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			rank, e.Name, e.School, e.Scores.Score,
			e.Scores.Consistency, e.Scores.Quality, e.Scores.Engagement, e.Scores.Streak)
	}
	_ = tw.Flush()
}

func (cli *commandLine) sendDigest(w session.Window) error {
	if err := cli.boardSvc.SendDigest(context.Background(), w); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "digest sent")
	return nil
}
