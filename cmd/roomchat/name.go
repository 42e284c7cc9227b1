package main

import (
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

func newNameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "name [new-display-name]",
		Short: "Show or change the display name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				name := a.profiles.DisplayName()
				if name == "" {
					color.Gray.Println("No display name set")
					return nil
				}
				color.Cyan.Println("Display name:", name)
				return nil
			}
			if err := a.service.SetDisplayName(cmd.Context(), args[0]); err != nil {
				return err
			}
			color.Green.Println("Display name set to:", args[0])
			return nil
		},
	}
}
