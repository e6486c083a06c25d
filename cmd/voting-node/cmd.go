package main

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mickablondo/voting-node/api"
	"github.com/mickablondo/voting-node/auth"
	"github.com/mickablondo/voting-node/db"
	"github.com/mickablondo/voting-node/events"
	"github.com/mickablondo/voting-node/session"
	"github.com/mickablondo/voting-node/store"
	"github.com/mickablondo/voting-node/types"
	flag "github.com/spf13/pflag"
	kvdb "go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/pebbledb"
	"go.vocdoni.io/dvote/log"
)

// Config contains the main configuration parameters of the node
type Config struct {
	dir, logLevel, port, admin string
}

func main() {
	config := Config{}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	flag.StringVarP(&config.dir, "dir", "d", filepath.Join(home, ".voting-node"),
		"storage data directory")
	flag.StringVarP(&config.logLevel, "logLevel", "l", "info", "log level (info, debug, warn, error)")
	flag.StringVarP(&config.port, "port", "p", "8080", "network port for the HTTP API")
	flag.StringVarP(&config.admin, "admin", "a", "", "hex address of the administrator")

	flag.CommandLine.SortFlags = false
	flag.Parse()

	log.Init(config.logLevel, "stdout")

	log.Debugf("Config: %#v\n", config)

	if !common.IsHexAddress(config.admin) {
		log.Fatalf("admin flag is not a valid hex address: %q", config.admin)
	}
	authority := auth.NewStaticAuthority(common.HexToAddress(config.admin))

	// prepare the snapshot store
	opts := kvdb.Options{Path: filepath.Join(config.dir, "session")}
	database, err := pebbledb.New(opts)
	if err != nil {
		log.Fatal(err)
	}
	sessionStore := store.New(database)

	// prepare the signal journal
	sqlDB, err := sql.Open("sqlite3", filepath.Join(config.dir, "signals.sqlite3"))
	if err != nil {
		log.Fatal(err)
	}
	sqlite := db.NewSQLite(sqlDB)
	if err := sqlite.Migrate(); err != nil {
		log.Fatal(err)
	}

	em := events.NewManager()
	go sqlite.Listen(em.SubscribeAll())
	go logSignals(em.SubscribeAll())

	s, err := session.New(session.Options{
		Authority: authority,
		Events:    em,
		Persister: sessionStore,
	})
	if err != nil {
		log.Fatal(err)
	}

	// resume the workflow where the previous run stopped
	snapshot, err := sessionStore.Load()
	if err != nil {
		log.Fatal(err)
	}
	if snapshot != nil {
		s.Restore(*snapshot)
		log.Infof("session restored at phase %s, %d voters, %d proposals",
			s.Phase(), s.NVoters(), s.NProposals())
	}

	a, err := api.New(s, sqlite)
	if err != nil {
		log.Fatal(err)
	}
	err = a.Serve(config.port)
	if err != nil {
		log.Fatal(err)
	}
}

func logSignals(ch <-chan types.Signal) {
	for signal := range ch {
		log.Infof("signal %s: %+v", signal.SignalName(), signal)
	}
}
