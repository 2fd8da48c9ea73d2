package commands

import (
	"errors"
	"fmt"

	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the super service and the signing key when absent",
	Long: `Create the super service and the signing key when absent.

The key of a newly created super service is printed once. Set AUTH_SUPER_ID
on the service to the printed id.`,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	e, err := getEnv()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	created, err := e.keyBus.EnsureKey(ctx)
	if err != nil {
		return fmt.Errorf("ensure key: %w", err)
	}

	if created {
		fmt.Println("signing key created")
	}

	nme, err := name.Parse(e.cfg.Auth.SuperName)
	if err != nil {
		return fmt.Errorf("super name: %w", err)
	}

	svc, err := e.serviceBus.QueryByName(ctx, nme)
	switch {
	case err == nil:
		fmt.Printf("super service exists\nID: %s\n", svc.ID)
		return nil

	case !errors.Is(err, servicebus.ErrNotFound):
		return fmt.Errorf("query super: %w", err)
	}

	svc, key, err := e.serviceBus.Create(ctx, servicebus.NewService{Name: nme})
	if err != nil {
		return fmt.Errorf("create super: %w", err)
	}

	fmt.Printf("\nSUCCESS: super service created\nID: %s\nKey: %s\n", svc.ID, key)
	return nil
}
