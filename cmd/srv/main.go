package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	server := &srv{ctx: context.Background()}

	app := cli.NewApp()
	app.Name = "jelajah"
	app.Usage = "Progress and reward engine of the Jelajah city explorer"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the toml configuration file",
			Value:   "config.toml",
			EnvVars: []string{"CONFIG_FILE"},
		},
	}
	app.Before = server.loadConfig
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: "Used to start the api server, it serves task completions and the progress views.",
		},
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start service cron",
			Category:    "Worker",
			Description: "Used to start the cron jobs which recompute the tiers and grant missed rewards.",
		},
		{
			Action:   server.startMigrate,
			Name:     "migrate",
			Usage:    "Migrate the database",
			Category: "Database",
		},
		{
			Action:   server.startSeed,
			Name:     "seed",
			Usage:    "Insert the catalog and reward definitions of a toml file",
			Category: "Database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"f"},
					Usage:    "Path of the catalog file",
					Required: true,
				},
			},
		},
		{
			Action:   server.startToken,
			Name:     "token",
			Usage:    "Issue an access token, for local development",
			Category: "Tool",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "user", Usage: "User id", Required: true},
				&cli.StringFlag{Name: "role", Usage: "Global role (user or admin)", Value: "user"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}
