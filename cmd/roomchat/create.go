package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new room and join it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd, func(ctx context.Context) (string, error) {
				return a.service.CreateRoom(ctx)
			})
		},
	}
}
