package commands

import (
	"fmt"

	"github.com/jcpaschoal/confmgmt/business/domain/servicebus"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/spf13/cobra"
)

var (
	serviceName string
	serviceKey  string
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage services",
}

var serviceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a service",
	Long: `Create a service and print its key once.

Examples:
  admin service create --name "acme"
  admin service create --name "acme" --key 8f1c...`,
	RunE: runServiceCreate,
}

func init() {
	serviceCreateCmd.Flags().StringVarP(&serviceName, "name", "n", "", "Service name (required)")
	serviceCreateCmd.Flags().StringVar(&serviceKey, "key", "", "Shared key, random when empty")
	_ = serviceCreateCmd.MarkFlagRequired("name")

	serviceCmd.AddCommand(serviceCreateCmd)
}

func runServiceCreate(cmd *cobra.Command, args []string) error {
	e, err := getEnv()
	if err != nil {
		return err
	}

	nme, err := name.Parse(serviceName)
	if err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	svc, key, err := e.serviceBus.Create(cmd.Context(), servicebus.NewService{
		Name: nme,
		Key:  serviceKey,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	fmt.Printf("\nSUCCESS: service created\nID: %s\nName: %s\nKey: %s\n", svc.ID, svc.Name, key)
	return nil
}
