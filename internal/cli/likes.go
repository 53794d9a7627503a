// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/wardrobeai/stylist-tui/internal/storage"
)

// HandleLikes handles the "likes" command: browse the local recommendation
// history and liked products.
func HandleLikes(args Args) {
	user, _, err := loadUser()
	if err != nil {
		fail(err)
	}

	hist, err := storage.OpenHistory()
	if err != nil {
		fail(fmt.Errorf("could not open recommendation history: %w", err))
	}
	defer hist.Close()

	ctx := context.Background()
	userID := user.Identifier()

	switch args.Subcommand {
	case "", "list":
		recs, err := hist.Liked(ctx, userID)
		if err != nil {
			fail(err)
		}
		if len(recs) == 0 {
			fmt.Println("No liked products yet. Use /like in chat.")
			return
		}
		printRecommendations(recs)

	case "history":
		recs, err := hist.Recent(ctx, userID, 50)
		if err != nil {
			fail(err)
		}
		if len(recs) == 0 {
			fmt.Println("No recommendations recorded yet.")
			return
		}
		printRecommendations(recs)

	case "export":
		doc, err := hist.ExportMarkdown(ctx, userID)
		if err != nil {
			fail(err)
		}
		if out := args.Options["output"]; out != "" {
			if err := os.WriteFile(out, []byte(doc), 0644); err != nil {
				fail(err)
			}
			if !args.Quiet {
				fmt.Printf("Exported history to %s.\n", out)
			}
			return
		}
		fmt.Print(doc)

	default:
		fail(fmt.Errorf("unknown likes subcommand %q (list, history, export)", args.Subcommand))
	}
}

func printRecommendations(recs []storage.Recommendation) {
	for _, r := range recs {
		liked := " "
		if r.Liked {
			liked = "♥"
		}
		line := fmt.Sprintf("%s %s", liked, r.Title)
		if r.Price != "" {
			line += " - " + r.Price
		}
		if r.Retailer != "" {
			line += " (" + r.Retailer + ")"
		}
		fmt.Println(line)
		if r.Link != "" {
			fmt.Println("    " + r.Link)
		}
		fmt.Printf("    id: %s  %s\n", r.ProductID, r.RecordedAt.Local().Format("2006-01-02"))
	}
}
