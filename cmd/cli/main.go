package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wadjakorntonsri/triptree/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/core/services"
	"github.com/wadjakorntonsri/triptree/pkg/geocode"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

const usage = "expected one of 'seed', 'create-user', 'export', 'import' or 'geocode' subcommands"

// env holds what the store-backed subcommands work with.
type env struct {
	store    *sqldb.Store
	auth     *services.AuthService
	profiles *services.ProfileService
	links    *services.LinkService
	places   *services.PlaceService
	log      logging.Logger
}

func newEnv(ctx context.Context, databaseURL string, log logging.Logger) (*env, error) {
	store, err := sqldb.Open(ctx, databaseURL, log)
	if err != nil {
		return nil, err
	}
	return &env{
		store:    store,
		auth:     services.NewAuthService(store.Users()),
		profiles: services.NewProfileService(store.Users(), store.Links(), store.Places()),
		links:    services.NewLinkService(store.Links()),
		places:   services.NewPlaceService(store.Places()),
		log:      log,
	}, nil
}

func main() {
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)

	createCmd := flag.NewFlagSet("create-user", flag.ExitOnError)
	createEmail := createCmd.String("email", "", "account email")
	createUsername := createCmd.String("username", "", "public username")
	createName := createCmd.String("name", "", "display name")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportUser := exportCmd.String("username", "", "user whose links and places are exported")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importUser := importCmd.String("username", "", "user receiving the links and places")
	importFile := importCmd.String("file", "", "JSON file to import")

	geocodeCmd := flag.NewFlagSet("geocode", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	log := logging.New(os.Stderr, cfg.AppEnv, cfg.LogLevel)
	ctx := context.Background()

	if os.Args[1] == "geocode" {
		geocodeCmd.Parse(os.Args[2:])
		if geocodeCmd.NArg() == 0 {
			fmt.Println("usage: geocode <query>")
			os.Exit(1)
		}
		c := geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeUserAgent)
		if err := doGeocode(ctx, c, geocodeCmd.Args(), os.Stdout); err != nil {
			log.Error(ctx, "geocode failed", "error", err)
			os.Exit(1)
		}
		return
	}

	e, err := newEnv(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error(ctx, "failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer e.store.Close()

	switch os.Args[1] {
	case "seed":
		seedCmd.Parse(os.Args[2:])
		err = doSeed(ctx, e, os.Stdout)
	case "create-user":
		createCmd.Parse(os.Args[2:])
		if *createEmail == "" || *createUsername == "" || *createName == "" {
			createCmd.PrintDefaults()
			os.Exit(1)
		}
		var password []byte
		password, err = promptPassword(os.Stdin, os.Stderr)
		if err == nil {
			err = doCreateUser(ctx, e, *createEmail, *createUsername, *createName, string(password), os.Stdout)
		}
	case "export":
		exportCmd.Parse(os.Args[2:])
		if *exportUser == "" {
			exportCmd.PrintDefaults()
			os.Exit(1)
		}
		err = doExport(ctx, e, *exportUser, os.Stdout)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importUser == "" || *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		var f *os.File
		f, err = os.Open(*importFile)
		if err == nil {
			err = doImport(ctx, e, *importUser, f, os.Stdout)
			f.Close()
		}
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Error(ctx, os.Args[1]+" failed", "error", err)
		e.store.Close()
		os.Exit(1)
	}
}
