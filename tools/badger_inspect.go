package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"roomsync/domain"
)

// Dumps the durable feed state of a roomchat database: room records
// (room:{id}) and message history (msg:{roomID}:{ulid}).
func main() {
	dbPath := flag.String("db", defaultPath(), "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan (empty scans rooms and messages)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Room", "Timestamp", "From", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				switch {
				case strings.HasPrefix(key, "room:"):
					var room domain.Room
					if err := json.Unmarshal(v, &room); err != nil {
						fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
						return nil
					}
					table.Append([]string{
						key,
						"ROOM",
						room.ID,
						room.CreatedAt.Format("15:04:05"),
						"",
						"",
					})
				case strings.HasPrefix(key, "msg:"):
					var msg domain.Message
					if err := json.Unmarshal(v, &msg); err != nil {
						fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
						return nil
					}
					parts := strings.SplitN(key, ":", 3)
					roomID := ""
					if len(parts) == 3 {
						roomID = parts[1]
					}
					table.Append([]string{
						key,
						"MSG",
						roomID,
						msg.At.Format("15:04:05"),
						shortID(msg.FromID),
						msg.Text,
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roomchat"
	}
	return home + "/.roomchat"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// A crashed process can leave the value log needing a truncate, which
		// read-only mode refuses to do. Open once in write mode to repair.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
