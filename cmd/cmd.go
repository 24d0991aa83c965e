// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand initializes the configuration file and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml (if missing), initialize the local database and run migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Erase everything kept in local storage, including the session",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles the session: login, registration and logout
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the logged-in session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Sources: cli.EnvVars("VORPLAY_EMAIL")},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("VORPLAY_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Sources: cli.EnvVars("VORPLAY_EMAIL")},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("VORPLAY_PASSWORD")},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Verify the stored session and show who is logged in",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// accountCommand manages the logged-in user's profile
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "View and edit your profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile and activity",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AccountShow,
			},
			{
				Name:  "update",
				Usage: "Change your name or email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New display name"},
					&cli.StringFlag{Name: "email", Usage: "New email"},
				},
				Action: r.AccountUpdate,
			},
			{
				Name:      "avatar",
				Usage:     "Upload a profile picture",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.AccountAvatar,
			},
			{
				Name:   "delete",
				Usage:  "Delete your account",
				Flags:  []cli.Flag{yesFlag()},
				Action: r.AccountDelete,
			},
		},
	}
}

// openCommand renders any section from a navigation state
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Show a section, e.g. `vorplay open 'section=track&trackId=3135553'` or `vorplay open favorites`",
		Arguments: []cli.Argument{&cli.StringArg{Name: "state"}},
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Open,
	}
}

// searchCommand searches the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search tracks, artists and albums",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Search,
	}
}

// reviewCommand handles track reviews
func reviewCommand(r *Runner) *cli.Command {
	reviewFlags := func(required bool) []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 1 to 5", Required: required},
			&cli.StringFlag{Name: "content", Aliases: []string{"m"}, Usage: "Review text", Required: required},
		}
	}

	return &cli.Command{
		Name:  "review",
		Usage: "Write, edit and delete track reviews",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Review a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Flags:     reviewFlags(true),
				Action:    r.ReviewAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit one of your reviews",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     reviewFlags(false),
				Action:    r.ReviewEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your reviews",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.ReviewDelete,
			},
		},
	}
}

// favoriteCommand handles favorite tracks
func favoriteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorite",
		Aliases: []string{"fav"},
		Usage:   "Add and remove favorite tracks",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a track to your favorites",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Action:    r.FavoriteAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track from your favorites",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.FavoriteRemove,
			},
		},
	}
}

// playlistCommand handles playlists and their tracks
func playlistCommand(r *Runner) *cli.Command {
	idArg := []cli.Argument{&cli.StringArg{Name: "id"}}
	trackArgs := []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "track"}}

	return &cli.Command{
		Name:  "playlist",
		Usage: "Create, edit and export playlists",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Playlist description"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:      "rename",
				Usage:     "Rename a playlist or change its description",
				Arguments: idArg,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: idArg,
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.PlaylistDelete,
			},
			{
				Name:      "add",
				Usage:     "Add a track to a playlist",
				Arguments: trackArgs,
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track from a playlist",
				Arguments: trackArgs,
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.PlaylistRemove,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist to CSV, Markdown or text",
				Arguments: idArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, md or txt",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (base name for csv, directory for md, file for txt)",
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every playlist you own, concurrently",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, md, txt or json",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to vorplay_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (max 10)",
						Value: 5,
					},
				},
				Action: r.PlaylistExportAll,
			},
		},
	}
}

// followCommand handles following other listeners
func followCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "follow",
		Usage: "Follow and unfollow listeners",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Follow a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user"}},
				Action:    r.FollowAdd,
			},
			{
				Name:      "remove",
				Usage:     "Unfollow a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.FollowRemove,
			},
		},
	}
}

// historyCommand handles the remote search history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage your search history",
		Commands: []*cli.Command{
			{
				Name:      "delete",
				Usage:     "Delete one history entry",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.HistoryDelete,
			},
			{
				Name:   "clear",
				Usage:  "Delete the whole search history",
				Flags:  []cli.Flag{yesFlag()},
				Action: r.HistoryClear,
			},
		},
	}
}

// webCommand opens the hosted web client
func webCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "web",
		Usage:     "Open the web client, optionally deep-linked to a navigation state",
		Arguments: []cli.Argument{&cli.StringArg{Name: "state"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "print", Usage: "Print the link instead of opening a browser"},
		},
		Action: r.Web,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls with the stored credential, prints raw JSON",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, e.g. `vorplay api get /users/me`",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// devCommand holds local development helpers
func devCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Local development helpers",
		Commands: []*cli.Command{
			{
				Name:  "api",
				Usage: "Serve an in-memory Vorplay API seeded with demo data",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to server.host)"},
					&cli.IntFlag{Name: "port", Usage: "Listen port (defaults to server.port)"},
					&cli.BoolFlag{Name: "empty", Usage: "Start without demo data"},
				},
				Action: r.DevAPI,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive terminal UI",
		Arguments: []cli.Argument{&cli.StringArg{Name: "state"}},
		Action:    r.TUI,
	}
}
