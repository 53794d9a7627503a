// Copyright (c) 2025 Wardrobe Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wardrobeai/stylist-tui/internal/api"
	"github.com/wardrobeai/stylist-tui/internal/session"
)

// HandleProfile handles the "profile" command and its subcommands.
func HandleProfile(args Args) {
	user, store, err := loadUser()
	if err != nil {
		fail(err)
	}

	switch args.Subcommand {
	case "", "show":
		printProfile(user)

	case "set":
		if len(args.Raw) < 2 {
			fail(fmt.Errorf("usage: stylist profile set FIELD VALUE"))
		}
		handleProfileSet(args, user, store, args.Raw[0], args.Raw[1])

	case "photos":
		printPhotos(user)

	case "upload":
		if len(args.Raw) < 1 {
			fail(fmt.Errorf("usage: stylist profile upload FILE"))
		}
		handlePhotoUpload(args, user, store, args.Raw[0])

	case "delete":
		if len(args.Raw) < 1 {
			fail(fmt.Errorf("usage: stylist profile delete N (see 'stylist profile photos')"))
		}
		handlePhotoDelete(args, user, store, args.Raw[0])

	default:
		fail(fmt.Errorf("unknown profile subcommand %q", args.Subcommand))
	}
}

func printProfile(user *api.User) {
	fmt.Printf("Profile for %s\n\n", user.Username)
	p := user.Profile
	rows := []struct{ label, value string }{
		{"gender", p.Gender},
		{"age-group", p.AgeGroup},
		{"region", p.Region},
		{"top-size", p.TopSize},
		{"bottom-size", p.BottomSize},
		{"shoe-size", p.ShoeSize},
	}
	for _, row := range rows {
		value := row.value
		if value == "" {
			value = "(not set)"
		}
		fmt.Printf("  %-12s %s\n", row.label, value)
	}
	fmt.Printf("  %-12s %d\n", "photos", len(p.Photos))
	fmt.Printf("  %-12s %d\n", "likes", len(p.LikedItems))
	if !p.HasPhoto() {
		fmt.Println("\nChat needs at least one photo: stylist profile upload FILE")
	}
}

func printPhotos(user *api.User) {
	if len(user.Profile.Photos) == 0 {
		fmt.Println("No photos uploaded.")
		return
	}
	for i, url := range user.Profile.Photos {
		fmt.Printf("%d. %s\n", i+1, url)
	}
}

func handleProfileSet(args Args, user *api.User, store *session.Store, field, value string) {
	update := api.ProfileUpdate{
		Gender:     user.Profile.Gender,
		AgeGroup:   user.Profile.AgeGroup,
		Region:     user.Profile.Region,
		TopSize:    user.Profile.TopSize,
		BottomSize: user.Profile.BottomSize,
		ShoeSize:   user.Profile.ShoeSize,
	}

	switch field {
	case "gender":
		update.Gender = value
	case "age-group", "age_group":
		update.AgeGroup = value
	case "region":
		update.Region = value
	case "top-size", "top_size":
		update.TopSize = value
	case "bottom-size", "bottom_size":
		update.BottomSize = value
	case "shoe-size", "shoe_size":
		update.ShoeSize = value
	default:
		fail(fmt.Errorf("unknown field %q (gender, age-group, region, top-size, bottom-size, shoe-size)", field))
	}

	client := newClient(args)
	updated, err := client.UpdateProfile(context.Background(), user.Identifier(), update)
	if err != nil {
		fail(err)
	}
	if err := store.Save(updated); err != nil {
		fail(fmt.Errorf("profile saved on the server, but updating the local session failed: %w", err))
	}
	if !args.Quiet {
		fmt.Printf("Set %s to %q.\n", field, value)
	}
}

func handlePhotoUpload(args Args, user *api.User, store *session.Store, path string) {
	f, err := os.Open(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()

	client := newClient(args)
	updated, err := client.UploadImage(context.Background(), user.Identifier(), filepath.Base(path), f)
	if err != nil {
		fail(err)
	}
	if err := store.Save(updated); err != nil {
		fail(fmt.Errorf("photo uploaded, but updating the local session failed: %w", err))
	}
	if !args.Quiet {
		fmt.Printf("Uploaded %s (%d photos total).\n", filepath.Base(path), len(updated.Profile.Photos))
	}
}

func handlePhotoDelete(args Args, user *api.User, store *session.Store, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(user.Profile.Photos) {
		fail(fmt.Errorf("pick a photo between 1 and %d (see 'stylist profile photos')", len(user.Profile.Photos)))
	}

	key, err := api.ExtractS3Key(user.Profile.Photos[n-1])
	if err != nil {
		fail(err)
	}

	client := newClient(args)
	updated, err := client.DeleteImage(context.Background(), user.Identifier(), key)
	if err != nil {
		fail(err)
	}
	if err := store.Save(updated); err != nil {
		fail(fmt.Errorf("photo deleted, but updating the local session failed: %w", err))
	}
	if !args.Quiet {
		fmt.Printf("Deleted photo %d (%d remaining).\n", n, len(updated.Profile.Photos))
	}
}
