package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newJoinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-code>",
		Short: "Join an existing room by its short code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := args[0]
			return a.runChat(cmd, func(ctx context.Context) (string, error) {
				return roomID, a.service.JoinRoom(ctx, roomID)
			})
		},
	}
}
