package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tgherd",
		Short:         "tgherd: drive a herd of Telegram accounts from one terminal",
		Long:          "tgherd manages a pool of signed-in Telegram sessions: rotate accounts over sends and reactions, assign proxies, pin chats, and work broadcast comment threads.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newProxyCmd(app),
		newPinCmd(app),
		newSendCmd(app),
		newReactCmd(app),
		newChatCmd(app),
		newCommentsCmd(app),
		newDialogsCmd(app),
		newModeCmd(app),
		newProfileCmd(app),
	)

	return rootCmd
}
