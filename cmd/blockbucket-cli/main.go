// Command blockbucket-cli is an interactive shell over one bucket file.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"

	"github.com/MikhailWahib/blockbucket"
)

func main() {
	file := pflag.StringP("file", "f", "data.db", "path to the bucket file")
	noSync := pflag.Bool("no-sync", false, "skip fsync after writes")
	pflag.Parse()

	cfg := blockbucket.DefaultConfig()
	cfg.SyncWrites = !*noSync

	bkt, err := blockbucket.Open(*file, cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Opened %s\n", *file)
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("input error:", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return
		}

		words, err := shellquote.Split(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		if err := run(bkt, words[0], words[1:]); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func run(bkt *blockbucket.Bucket, cmd string, args []string) error {
	switch cmd {
	case "help":
		printHelp()
		return nil

	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		return bkt.Set([]byte(args[0]), []byte(args[1]))

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <key>")
		}
		k, v, err := bkt.Get([]byte(args[0]))
		if err != nil {
			return err
		}
		if len(k) == 0 && len(v) == 0 {
			fmt.Println("(not found)")
			return nil
		}
		fmt.Println(string(v))
		return nil

	case "del":
		if len(args) != 1 {
			return fmt.Errorf("usage: del <key>")
		}
		return bkt.Delete([]byte(args[0]))

	case "list":
		limit, err := argLimit(args, 0)
		if err != nil {
			return err
		}
		recs, err := bkt.List(limit)
		if err != nil {
			return err
		}
		printRecords(recs)
		return nil

	case "next":
		if len(args) != 2 {
			return fmt.Errorf("usage: next <limit> <skip>")
		}
		limit, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad limit: %w", err)
		}
		skip, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad skip: %w", err)
		}
		recs, err := bkt.ListNext(limit, skip)
		if err != nil {
			return err
		}
		printRecords(recs)
		return nil

	case "find":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: find <key> <limit> [after]")
		}
		limit, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad limit: %w", err)
		}
		onlyAfter := len(args) == 3 && args[2] == "after"
		recs, err := bkt.FindNext([]byte(args[0]), limit, onlyAfter)
		if err != nil {
			return err
		}
		printRecords(recs)
		return nil

	case "delto":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: delto <key> [keep]")
		}
		alsoDeleteFound := !(len(args) == 2 && args[1] == "keep")
		return bkt.DeleteTo([]byte(args[0]), alsoDeleteFound)

	case "pop":
		limit, err := argLimit(args, 1)
		if err != nil {
			return err
		}
		recs, err := bkt.ListLockDelete(limit)
		if err != nil {
			return err
		}
		printRecords(recs)
		return nil

	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func argLimit(args []string, defaultLimit int) (int, error) {
	if len(args) == 0 {
		if defaultLimit > 0 {
			return defaultLimit, nil
		}
		return 0, fmt.Errorf("missing limit")
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad limit: %w", err)
	}
	return limit, nil
}

func printRecords(recs []blockbucket.Record) {
	if len(recs) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, r := range recs {
		fmt.Printf("%s = %s\n", r.Key, r.Value)
	}
}

func printHelp() {
	fmt.Println(`Commands:
  set <key> <value>        append a record
  get <key>                first value stored under key
  del <key>                remove all records with key
  list <limit>             first records in file order
  next <limit> <skip>      stateless pagination
  find <key> <limit> [after]
                           window of records from the first match,
                           'after' starts just past it
  delto <key> [keep]       delete records up to the first match,
                           'keep' leaves the matched record in place
  pop [limit]              read and remove the oldest records (default 1)
  help                     this text
  exit                     quit`)
}
