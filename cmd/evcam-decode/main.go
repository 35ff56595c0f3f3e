package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"evcam-stream-go/internal/encode"
	"evcam-stream-go/internal/output"
)

func main() {
	var (
		path  = flag.String("path", "", "Raw log file, .cbor file, or directory of .cbor files")
		limit = flag.Int("limit", 5, "Max number of messages to print in full (0 = all)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("missing -path")
	}

	var total, failed int
	var events uint64

	dump := func(recorded int64, payload []byte) {
		msg, err := encode.Decode(payload)
		if err != nil {
			failed++
			log.Printf("decode error: %v", err)
			return
		}
		total++
		events += uint64(len(msg.Events))
		if *limit > 0 && total > *limit {
			return
		}
		fmt.Printf("message seq=%d frame_id=%s encoding=%s %dx%d events=%d stamp=%s\n",
			msg.Seq, msg.FrameID, msg.Encoding, msg.Width, msg.Height,
			len(msg.Events), time.Unix(0, int64(msg.Stamp)).Format(time.RFC3339Nano))
		if recorded != 0 {
			fmt.Printf("  recorded=%s\n", time.Unix(0, recorded).Format(time.RFC3339Nano))
		}
		if n := len(msg.Events); n > 0 {
			first := msg.Events[0]
			last := msg.Events[n-1]
			fmt.Printf("  first=(%d,%d,p%d,%d) last=(%d,%d,p%d,%d) span=%dns\n",
				first.X, first.Y, first.Polarity, first.TimeNs,
				last.X, last.Y, last.Polarity, last.TimeNs,
				last.TimeNs-first.TimeNs)
		}
	}

	if output.IsRawLog(*path) {
		reader, err := output.OpenRawLog(*path)
		if err != nil {
			log.Fatalf("open raw log: %v", err)
		}
		defer reader.Close()
		for {
			recorded, payload, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Fatalf("read raw log: %v", err)
			}
			dump(recorded, payload)
		}
	} else {
		files, err := listFiles(*path)
		if err != nil {
			log.Fatalf("list files: %v", err)
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				log.Printf("read %s: %v", file, err)
				continue
			}
			dump(0, data)
		}
	}

	fmt.Printf("summary: messages=%d events=%d decode_failures=%d\n", total, events, failed)
}

func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".cbor" {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
