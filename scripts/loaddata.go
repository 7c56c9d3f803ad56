// Use: generate a synthetic roster and load it into a migrated datastore
//
//	go run ./scripts/loaddata.go sqlite file:affinity.db 120 400
//	go run ./scripts/loaddata.go json ./data 60 200

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/umafamily/affinity/cmd/util"
	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/types"
)

const (
	firstID       = 1001
	maxPoints     = 5
	maxGroupShare = 8
)

func main() {
	if len(os.Args) != 5 {
		log.Fatalf("usage: %s <engine> <uri> <characters> <relation types>", os.Args[0])
	}
	argEngine := os.Args[1]
	argURI := os.Args[2]
	argCharacters, err := strconv.Atoi(os.Args[3])
	if err != nil {
		log.Panic(err)
	}
	argRelationTypes, err := strconv.Atoi(os.Args[4])
	if err != nil {
		log.Panic(err)
	}

	cfg := config.DefaultConfig().Datastore
	cfg.Engine = argEngine
	cfg.URI = argURI

	ds, err := util.OpenDatastore(cfg, logger.MustNewLogger("text", "info"))
	if err != nil {
		log.Panic(err)
	}
	defer ds.Close()

	dataset := generateDataset(rand.New(rand.NewPCG(uint64(argCharacters), uint64(argRelationTypes))), argCharacters, argRelationTypes)
	if err := write(context.Background(), ds, dataset); err != nil {
		log.Panic(err)
	}
}

// generateDataset is deterministic for a given source.
func generateDataset(r *rand.Rand, characters, relationTypes int) *storage.Dataset {
	defer timeTrack(time.Now(), "generateDataset")

	d := &storage.Dataset{}
	for i := range characters {
		id := types.EntityID(firstID + i)
		d.Entities = append(d.Entities, types.Entity{ID: id, Name: "Character " + id.String()})
	}

	for i := range relationTypes {
		rt := types.RelationType(strconv.Itoa(i + 1))
		d.Rules = append(d.Rules, types.RelationRule{RelationType: rt, Points: 1 + r.IntN(maxPoints)})

		members := 2 + r.IntN(maxGroupShare)
		for _, idx := range r.Perm(characters)[:min(members, characters)] {
			d.Groups = append(d.Groups, types.RelationGroup{RelationType: rt, EntityID: d.Entities[idx].ID})
		}
	}
	return d
}

func write(ctx context.Context, ds storage.DatasetWriter, d *storage.Dataset) error {
	defer timeTrack(time.Now(), fmt.Sprintf("write %d characters, %d rules, %d groups", len(d.Entities), len(d.Rules), len(d.Groups)))
	return ds.WriteDataset(ctx, d)
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	log.Printf("%s took %s", name, elapsed)
}
