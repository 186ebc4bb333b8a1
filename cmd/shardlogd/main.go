package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"shardlog/internal/archive"
	"shardlog/internal/archive/sqlite"
	"shardlog/internal/config"
	"shardlog/internal/domain"
	"shardlog/internal/eventlog"
	"shardlog/internal/store"
)

func main() {
	cfgPath := flag.String("config", "shardlog.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	strategy, err := cfg.BuildStrategy()
	if err != nil {
		log.Fatalf("build strategy: %v", err)
	}
	st, err := store.New[domain.Event](strategy, nil)
	if err != nil {
		log.Fatalf("build store: %v", err)
	}
	eventLog := eventlog.New(st)

	restored := 0
	if cfg.Archive.Enabled {
		var arc archive.Archiver
		arc, err = sqlite.NewStore(cfg.Archive.Path)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer arc.Close()
		restored, err = archive.Restore(context.Background(), arc, eventLog)
		if err != nil {
			log.Fatalf("restore archive: %v", err)
		}
	}

	fmt.Printf("shardlogd node=%s strategy=%s partitions=%d events=%d archive=%t\n",
		cfg.Engine.NodeID,
		strategy.Name(),
		st.PartitionCount(),
		restored,
		cfg.Archive.Enabled,
	)
}
