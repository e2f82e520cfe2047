package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/esetclust/eset"
	"github.com/carbocation/esetclust/hclust"
	"github.com/carbocation/esetclust/hclust/session"
	"github.com/carbocation/esetclust/learn"

	_ "github.com/carbocation/esetclust/compileinfoprint"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)

	exit = log.Fatalln
)

// fatal flushes whatever has been reported so far, e.g. the top table, before
// exiting. log.Fatalln skips deferred calls.
func fatal(err error) {
	STDOUT.Flush()
	exit(err)
}

func main() {
	defer STDOUT.Flush()

	var (
		exprsPath, phenoPath        string
		annotationTag               string
		annotationTSV, annotationDB string
		annotationDir, annotationQ  string
		group, coef                 string
		top                         int
		heatmapPath                 string
		heatmapWidth                int
		learner                     string
		learnCfg                    learn.Config
		interactive                 bool
		configPath                  string
		k                           int
		distance, linkage           string
		port                        int
		outputPath                  string
	)

	flag.StringVar(&exprsPath, "exprs", "", "Expression matrix: features in rows, samples in columns. Local path, http(s) URL or gs:// URL; may be compressed.")
	flag.StringVar(&phenoPath, "pheno", "", "(Optional) Sample metadata table whose first column holds the sample IDs.")
	flag.StringVar(&annotationTag, "annotation", "", "(Optional) Annotation package name of the platform, e.g. hgu95av2. Selects <annotation-dir>/<annotation>.sqlite.")
	flag.StringVar(&annotationTSV, "annotation-tsv", "", "(Optional) Table with probe_id and symbol columns.")
	flag.StringVar(&annotationDB, "annotation-db", "", "(Optional) SQLite database mapping probes to symbols.")
	flag.StringVar(&annotationDir, "annotation-dir", ".", "Folder searched for <annotation>.sqlite when neither -annotation-tsv nor -annotation-db is set.")
	flag.StringVar(&annotationQ, "annotation-query", "", "(Optional) SQL returning the symbol for one probe ID. Defaults to a lookup in a probes(probe_id, symbol) table.")
	flag.StringVar(&group, "group", "", "Metadata column defining the sample groups for differential expression and classification.")
	flag.StringVar(&coef, "coef", "", "(Optional) Rank features by this coefficient's moderated t instead of the moderated F over all groups.")
	flag.IntVar(&top, "top", 50, "Number of top features to keep for the heatmap, the classifier and the clustering.")
	flag.StringVar(&heatmapPath, "heatmap", "", "(Optional) Path of a PNG heatmap of the top features.")
	flag.IntVar(&heatmapWidth, "heatmap-width", 0, "(Optional) Resize the heatmap to this width in pixels.")
	flag.StringVar(&learner, "learner", learn.RandomForest, fmt.Sprintf("Classifier of the groups from the top features: %s or %s. Empty to skip.", learn.RandomForest, learn.NearestNeighbors))
	flag.IntVar(&learnCfg.Trees, "trees", 500, "Trees in the random forest.")
	flag.IntVar(&learnCfg.MTry, "mtry", 0, "Features tried at each split. 0 means the square root of the number of features.")
	flag.IntVar(&learnCfg.K, "neighbors", 5, "Neighbours consulted by knn.")
	flag.Int64Var(&learnCfg.Seed, "seed", 1, "Random seed for the classifier.")
	flag.BoolVar(&interactive, "interactive", false, "Choose the clustering in a browser instead of using -k, -distance and -linkage directly.")
	flag.StringVar(&configPath, "config", "", "(Optional) JSON config for the interactive session.")
	flag.IntVar(&k, "k", 2, "Number of clusters.")
	flag.StringVar(&distance, "distance", hclust.Euclidean, "Distance between samples: euclidean, manhattan, maximum or correlation.")
	flag.StringVar(&linkage, "linkage", hclust.Complete, "Linkage: complete, single, average or ward.D2.")
	flag.IntVar(&port, "port", 9019, "Port for the interactive session.")
	flag.StringVar(&outputPath, "output", "", "(Optional) File to write the sample cluster assignments to. Defaults to STDOUT.")
	flag.Parse()

	if exprsPath == "" {
		flag.PrintDefaults()
		return
	}
	if phenoPath != "" && group == "" {
		fmt.Fprintln(os.Stderr, "Please provide -group along with -pheno")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var sclient *storage.Client
	if anyRemote(exprsPath, phenoPath, annotationTSV) {
		var err error
		sclient, err = storage.NewClient(ctx)
		if err != nil {
			fatal(err)
		}
		defer sclient.Close()
	}

	es, err := eset.Load(ctx, eset.LoadOptions{
		ExprsPath:     exprsPath,
		PhenoPath:     phenoPath,
		Annotation:    annotationTag,
		StorageClient: sclient,
	})
	if err != nil {
		fatal(err)
	}
	nf, ns := es.Dims()
	log.Printf("Loaded %d features x %d samples\n", nf, ns)

	symbols, err := lookupSymbols(ctx, es, annotationTSV, annotationDB, annotationDir, annotationQ, sclient)
	if err != nil {
		fatal(err)
	}

	var groups []string
	if group != "" {
		if es, err = dropMissing(es, group); err != nil {
			fatal(err)
		}
		if groups, err = groupLabels(es, group); err != nil {
			fatal(err)
		}
	}

	topIdx, err := selectFeatures(es, symbols, group, coef, top)
	if err != nil {
		fatal(err)
	}

	subset, err := es.Subset(topIdx, nil)
	if err != nil {
		fatal(err)
	}
	if symbols != nil {
		topSymbols := make([]string, len(topIdx))
		for i, f := range topIdx {
			topSymbols[i] = symbols[f]
		}
		if subset, err = subset.WithFeatures(topSymbols); err != nil {
			fatal(err)
		}
	}

	if heatmapPath != "" {
		if err := drawHeatmap(subset, heatmapPath, heatmapWidth); err != nil {
			fatal(err)
		}
		log.Println("Wrote heatmap to", heatmapPath)
	}

	if learner != "" && groups != nil {
		if err := classify(subset, groups, learner, learnCfg); err != nil {
			fatal(err)
		}
	}

	var clusterer eset.Clusterer[*hclust.Result] = hclust.Batch{K: k, Distance: distance, Linkage: linkage}
	if interactive {
		cfg := session.DefaultConfig()
		if configPath != "" {
			if cfg, err = session.ParseConfigFromPath(configPath); err != nil {
				fatal(err)
			}
		} else {
			cfg.Port, cfg.K, cfg.Distance, cfg.Linkage = port, k, distance, linkage
		}
		if cfg.Project == "" {
			cfg.Project = exprsPath
		}

		s := session.New(cfg)
		s.Groups = groups
		clusterer = s
	}

	result, err := eset.Adapt[*hclust.Result](ctx, subset, clusterer)
	if err != nil {
		fatal(err)
	}

	if err := writeAssignments(result, groups, outputPath); err != nil {
		fatal(err)
	}
}

func anyRemote(paths ...string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, "gs://") {
			return true
		}
	}

	return false
}
