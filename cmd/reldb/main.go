package main

import (
	"flag"
	"os"

	"github.com/reldb/reldb/internal/conn"
	"github.com/reldb/reldb/internal/repl"
	"github.com/reldb/reldb/internal/session"
	"github.com/reldb/reldb/pkg"
)

func main() {
	cwd, _ := os.Getwd()

	db_path := flag.String("db", cwd+"/reldb_data", "path to save db data")
	in_mem := flag.Bool("m", false, "don't persist db")
	port := flag.Int("port", 7085, "listening port")
	should_log := flag.Bool("log", true, "print info logs")
	show_debug_logs := flag.Bool("debug", false, "print debug logs")
	use_repl := flag.Bool("repl", false, "run the interactive shell instead of the server")
	username := flag.String("user", "", "root user name")
	password := flag.String("pass", "", "root user password")

	flag.Parse()

	write_settings := session.NewWriteSettings(*db_path, *in_mem)
	db, err := session.NewRelDB(
		session.AuthSettings{Username: *username, Password: *password},
		write_settings,
		session.LogOptions{Should_log: *should_log, Show_debug_logs: *show_debug_logs},
	)
	if err != nil {
		pkg.FatalLog(err)
	}

	if *use_repl {
		repl.Run(db, os.Stdin, os.Stdout)
		return
	}
	conn.Listen(db, *port)
}
