package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/recurrence"
	"github.com/butcapp/butcap/internal/service"
)

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Keep dated notes",
	}

	cmd.AddCommand(addNoteCmd())
	cmd.AddCommand(listNotesCmd())
	cmd.AddCommand(deleteNoteCmd())

	return cmd
}

func addNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a note for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tagsFlag, _ := cmd.Flags().GetString("tags")
			dateFlag, _ := cmd.Flags().GetString("date")

			date := recurrence.Midnight(service.SystemClock{}.Now())
			if dateFlag != "" {
				var err error
				if date, err = parseDay(dateFlag); err != nil {
					return err
				}
			}

			note := model.Note{
				ID:      uuid.NewString(),
				Content: args[0],
				Date:    date,
			}
			if tagsFlag != "" {
				for _, tag := range strings.Split(tagsFlag, ",") {
					if tag = strings.TrimSpace(tag); tag != "" {
						note.Tags = append(note.Tags, tag)
					}
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.AddNote(ctx, &note); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Note saved."))
			return nil
		},
	}

	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().String("date", "", "Note date YYYY-MM-DD (default: today)")

	return cmd
}

func listNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filterFlag, _ := cmd.Flags().GetString("filter")
			filter := service.NoteFilter(filterFlag)
			switch filter {
			case service.NotesAll, service.NotesToday, service.NotesWeek, service.NotesMonth:
			default:
				return fmt.Errorf("invalid filter %q, expected all, today, week or month", filterFlag)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			notes, err := store.ListNotes(ctx, filter, service.SystemClock{}.Now())
			if err != nil {
				return fmt.Errorf("failed to list notes: %w", err)
			}
			if len(notes) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No notes found."))
				return nil
			}

			for i := range notes {
				note := &notes[i]
				header := note.Date.Format("2006-01-02")
				if len(note.Tags) > 0 {
					header += "  " + cli.SubtleStyle.Render("#"+strings.Join(note.Tags, " #"))
				}
				fmt.Printf("%s  %s\n%s\n\n",
					cli.NoteIcon, header+"  "+cli.SubtleStyle.Render(note.ID), note.Content)
			}
			return nil
		},
	}

	cmd.Flags().String("filter", "all", "Filter notes (all, today, week, month)")

	return cmd
}

func deleteNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteNote(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Note deleted."))
			return nil
		},
	}
}
