// This program performs administrative tasks for the conferencing service.
package main

import (
	"context"
	"os"

	"github.com/jcpaschoal/confmgmt/api/tooling/admin/commands"
)

func main() {
	if err := commands.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

//go run api/tooling/admin/main.go migrate
//go run api/tooling/admin/main.go bootstrap
//go run api/tooling/admin/main.go service create --name "acme"
//go run api/tooling/admin/main.go room import -f rooms.yaml --service <service-id>
