package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/domain/roombus"
	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jcpaschoal/confmgmt/business/types/name"
	"github.com/jcpaschoal/confmgmt/foundation/retry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	roomFile    string
	roomService string
)

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Manage rooms",
}

var roomImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create the rooms described in a YAML file",
	Long: `Create the rooms described in a YAML file and add them to a service.

The file holds a rooms list; every entry takes the fields of the room create
endpoint. Missing limits mean unlimited and missing roles or views take the
defaults.

Examples:
  admin room import -f rooms.yaml --service 5cf37266-3473-4006-984f-9325122678b7`,
	RunE: runRoomImport,
}

func init() {
	roomImportCmd.Flags().StringVarP(&roomFile, "file", "f", "", "YAML file with the rooms (required)")
	roomImportCmd.Flags().StringVar(&roomService, "service", "", "Owning service id (required)")
	_ = roomImportCmd.MarkFlagRequired("file")
	_ = roomImportCmd.MarkFlagRequired("service")

	roomCmd.AddCommand(roomImportCmd)
}

func runRoomImport(cmd *cobra.Command, args []string) error {
	e, err := getEnv()
	if err != nil {
		return err
	}

	serviceID, err := uuid.Parse(roomService)
	if err != nil {
		return fmt.Errorf("invalid service id: %w", err)
	}

	data, err := os.ReadFile(roomFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	nrs, err := parseRooms(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	for _, nr := range nrs {
		var rm roombus.Room

		err := retry.Run(ctx, e.retry, sqldb.IsTransient, func(ctx context.Context) error {
			return sqldb.WithinTran(ctx, e.log, e.beginner, func(tx sqldb.CommitRollbacker) error {
				serviceBus, err := e.serviceBus.NewWithTx(tx)
				if err != nil {
					return err
				}

				roomBus, err := e.roomBus.NewWithTx(tx)
				if err != nil {
					return err
				}

				svc, err := serviceBus.QueryByID(ctx, serviceID)
				if err != nil {
					return err
				}

				rm, err = roomBus.Create(ctx, nr)
				if err != nil {
					return err
				}

				_, err = serviceBus.AddRoom(ctx, svc, rm.ID)
				return err
			})
		})
		if err != nil {
			return fmt.Errorf("import room %q: %w", nr.Name, err)
		}

		fmt.Printf("room created: %s (ID: %s)\n", rm.Name, rm.ID)
	}

	return nil
}

// =============================================================================

type roomDoc struct {
	Name             string         `json:"name"`
	ParticipantLimit *int           `json:"participantLimit"`
	InputLimit       *int           `json:"inputLimit"`
	Roles            []roombus.Role `json:"roles"`
	Views            []roombus.View `json:"views"`
}

// parseRooms reads a rooms file. The entries go through JSON so the YAML
// accepts the same shapes as the API, false for a disabled mix included.
func parseRooms(data []byte) ([]roombus.NewRoom, error) {
	var file struct {
		Rooms []any `yaml:"rooms"`
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	raw, err := json.Marshal(file.Rooms)
	if err != nil {
		return nil, fmt.Errorf("convert rooms: %w", err)
	}

	var docs []roomDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}

	nrs := make([]roombus.NewRoom, len(docs))
	for i, doc := range docs {
		nme, err := name.Parse(doc.Name)
		if err != nil {
			return nil, fmt.Errorf("room %d: %w", i, err)
		}

		nr := roombus.NewRoom{
			Name:             nme,
			ParticipantLimit: -1,
			InputLimit:       -1,
			Roles:            doc.Roles,
			Views:            doc.Views,
		}

		if doc.ParticipantLimit != nil {
			nr.ParticipantLimit = *doc.ParticipantLimit
		}

		if doc.InputLimit != nil {
			nr.InputLimit = *doc.InputLimit
		}

		nrs[i] = nr
	}

	return nrs, nil
}
