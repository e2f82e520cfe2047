// esetdump prints an expression matrix transposed to one row per sample, with
// de-duplicated sample and feature labels, as a tab-delimited table.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/esetclust/eset"

	_ "github.com/carbocation/esetclust/compileinfoprint"
)

func main() {
	var exprsPath, features, samples string
	var sanitize bool

	flag.StringVar(&exprsPath, "exprs", "", "Expression matrix: features in rows, samples in columns. Local path, http(s) URL or gs:// URL.")
	flag.StringVar(&features, "features", "", "(Optional) Comma-separated feature IDs to keep, in this order.")
	flag.StringVar(&samples, "samples", "", "(Optional) Comma-separated sample IDs to keep, in this order.")
	flag.BoolVar(&sanitize, "names", false, "Rewrite feature IDs into syntactically valid names (letters, digits, dots and underscores, not starting with a digit).")
	flag.Parse()

	if exprsPath == "" {
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()

	var sclient *storage.Client
	if strings.HasPrefix(exprsPath, "gs://") {
		var err error
		if sclient, err = storage.NewClient(ctx); err != nil {
			log.Fatalln(err)
		}
		defer sclient.Close()
	}

	es, err := eset.Load(ctx, eset.LoadOptions{ExprsPath: exprsPath, StorageClient: sclient})
	if err != nil {
		log.Fatalln(err)
	}

	if features != "" || samples != "" {
		if es, err = es.SubsetByName(splitList(features), splitList(samples)); err != nil {
			log.Fatalln(err)
		}
	}

	if sanitize {
		names, err := eset.MakeNames(es.Features())
		if err != nil {
			log.Fatalln(err)
		}
		if es, err = es.WithFeatures(names); err != nil {
			log.Fatalln(err)
		}
	}

	view, err := eset.ToTabular(es)
	if err != nil {
		log.Fatalln(err)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	if err := view.WriteTSV(w); err != nil {
		log.Fatalln(err)
	}
}

// splitList returns nil for an empty list so that it selects everything.
func splitList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}
