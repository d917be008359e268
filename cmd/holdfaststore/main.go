// Command holdfaststore is an interactive REPL over a holdfast store,
// grounded on godb's main.go command-loop shape and on calvinalkan's
// pflag-based flag parsing.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/holdfast-db/holdfast"
)

func help() {
	fmt.Println("commands:")
	fmt.Println("  put <key> <value>")
	fmt.Println("  get <key>")
	fmt.Println("  del <key>")
	fmt.Println("  rotate")
	fmt.Println("  stats")
	fmt.Println("  help")
	fmt.Println("  exit")
}

func main() {
	basedir := pflag.StringP("basedir", "d", "./holdfast-data", "directory holding the data and log files")
	noLog := pflag.Bool("no-log", false, "disable the operation log (data file only, no recovery)")
	bySequence := pflag.Bool("recovery-by-sequence", false, "pair recovered log files by numeric sequence instead of directory order")
	pflag.Parse()

	cfg := holdfast.DefaultConfig()
	cfg.LogEnabled = !*noLog
	if *bySequence {
		cfg.RecoveryOrder = holdfast.RecoveryOrderBySequence
	}

	store, err := holdfast.Open(*basedir, cfg, nil, nil)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	fmt.Printf("holdfaststore — %s\n", *basedir)
	help()

	in := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		parts := strings.Fields(line)
		switch strings.ToLower(parts[0]) {
		case "help":
			help()
		case "put":
			if len(parts) < 3 {
				fmt.Println("usage: put <key> <value>")
				break
			}
			value := strings.Join(parts[2:], " ")
			offset, perr := store.Put([]byte(parts[1]), []byte(value))
			if perr != nil {
				fmt.Printf("put error: %v\n", perr)
			} else {
				fmt.Printf("OK offset=%d\n", offset)
			}
		case "get":
			if len(parts) != 2 {
				fmt.Println("usage: get <key>")
				break
			}
			v, ok, gerr := store.Get([]byte(parts[1]))
			switch {
			case gerr != nil:
				fmt.Printf("get error: %v\n", gerr)
			case !ok:
				fmt.Println("(nil)")
			default:
				fmt.Println(string(v))
			}
		case "del":
			if len(parts) != 2 {
				fmt.Println("usage: del <key>")
				break
			}
			if err := store.Delete([]byte(parts[1])); err != nil {
				fmt.Printf("del error: %v\n", err)
			} else {
				fmt.Println("OK")
			}
		case "stats":
			if mi, ok := store.Index().(*holdfast.MemIndex); ok {
				fmt.Printf("keys tracked: %d\n", mi.Len())
			} else {
				fmt.Println("stats unavailable for this index implementation")
			}
		case "rotate":
			snap, rerr := store.Rotate()
			if rerr != nil {
				fmt.Printf("rotate error: %v\n", rerr)
				break
			}
			fmt.Printf("retired log: records=%d hash=%s taken=%s\n",
				snap.Records(), strconv.FormatUint(snap.Hash(), 16), snap.Time().Format("15:04:05"))
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q, type \"help\"\n", parts[0])
		}
		fmt.Print("> ")
	}
}
