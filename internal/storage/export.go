// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wardrobeai/stylist-tui/internal/util"
)

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// ExportMarkdown renders the user's recommendation history as a markdown
// document suitable for saving or sharing.
func (s *HistoryStore) ExportMarkdown(ctx context.Context, userID string) (string, error) {
	recs, err := s.Recent(ctx, userID, 0)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Recommendation History\n\n")
	fmt.Fprintf(&b, "Exported %s\n\n", time.Now().Format("2006-01-02 15:04"))

	if len(recs) == 0 {
		b.WriteString("_No recommendations recorded yet._\n")
		return b.String(), nil
	}

	// Group by thread, preserving newest-first order.
	var threads []string
	byThread := make(map[string][]Recommendation)
	for _, r := range recs {
		if _, seen := byThread[r.ThreadID]; !seen {
			threads = append(threads, r.ThreadID)
		}
		byThread[r.ThreadID] = append(byThread[r.ThreadID], r)
	}

	for _, tid := range threads {
		title := tid
		if title == "" {
			title = "(no thread)"
		}
		fmt.Fprintf(&b, "## Chat %s\n\n", title)
		for _, r := range byThread[tid] {
			liked := ""
			if r.Liked {
				liked = " ♥"
			}
			fmt.Fprintf(&b, "- **%s**%s", util.TruncateRunes(r.Title, 120), liked)
			if r.Price != "" {
				fmt.Fprintf(&b, " - %s", r.Price)
			}
			if r.Retailer != "" {
				fmt.Fprintf(&b, " (%s)", r.Retailer)
			}
			b.WriteString("\n")
			if r.Link != "" {
				fmt.Fprintf(&b, "  %s\n", r.Link)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
