package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the token signing key",
}

var keyRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Replace the signing key with a fresh random one",
	Long: `Replace the signing key with a fresh random one.

Tokens signed with the previous key no longer verify.`,
	RunE: runKeyRotate,
}

func init() {
	keyCmd.AddCommand(keyRotateCmd)
}

func runKeyRotate(cmd *cobra.Command, args []string) error {
	e, err := getEnv()
	if err != nil {
		return err
	}

	if err := e.keyBus.Rotate(cmd.Context()); err != nil {
		return fmt.Errorf("rotate: %w", err)
	}

	fmt.Println("signing key rotated")
	return nil
}
