package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"roomsync/domain"
	"roomsync/domain/event"
)

// consoleSink prints applied room changes to the terminal. Own messages
// come back through the feed echo like everyone else's, so they are dimmed
// instead of skipped.
type consoleSink struct {
	me string
}

func (c *consoleSink) Consume(_ context.Context, e event.Event) error {
	switch ev := e.(type) {
	case event.MessageReceived:
		stamp := ev.Message.At.Format("15:04:05")
		if ev.Message.FromID == c.me {
			color.Gray.Printf("%s you: %s\n", stamp, ev.Message.Text)
			return nil
		}
		fmt.Printf("%s %s: %s\n", stamp, color.Cyan.Sprint(ev.Message.FromName), ev.Message.Text)
	case event.PresenceChanged:
		color.Gray.Printf("%d participant(s) in the room\n", len(ev.Participants))
	}
	return nil
}

// runChat joins a room through the given step, then turns stdin lines into
// intents until the user leaves or the input closes.
func (a *app) runChat(cmd *cobra.Command, join func(context.Context) (string, error)) error {
	ctx := cmd.Context()

	a.service.AddSink(&consoleSink{me: a.service.State().Identity.ID})

	roomID, err := join(ctx)
	if err != nil {
		return err
	}
	defer a.service.LeaveRoom(context.Background())

	color.Green.Println("Room code:", roomID)
	color.Gray.Println("Type to send a message. /who lists participants, /leave quits.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/leave", "/quit":
			return nil
		case "/who":
			printParticipants(a.service.State().Participants)
		default:
			if err := a.service.SendMessage(ctx, line); err != nil {
				color.Red.Println("Send failed:", err)
			}
		}
	}
	return scanner.Err()
}

func printParticipants(participants []domain.Participant) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "ID", "Joined"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, p := range participants {
		id := p.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append([]string{p.Name, id, p.JoinedAt.Format("15:04:05")})
	}
	table.Render()
}
