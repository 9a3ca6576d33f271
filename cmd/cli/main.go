// Command shopauth-cli runs operator tasks against the shopauth user store.
//
//	shopauth-cli register            create a user (password is not echoed)
//	shopauth-cli revoke <email>      end the user's session
//
// It reads the same configuration as the server.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/shopauth/internal/admin"
	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/dmitrijs2005/shopauth/internal/server"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = admin.NewApp(app.Users(), os.Stdin, os.Stdout).Run(ctx, flagx.Positional(os.Args[1:]))
	_ = app.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}

}
