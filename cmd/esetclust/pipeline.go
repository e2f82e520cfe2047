package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"

	"cloud.google.com/go/storage"
	"github.com/carbocation/esetclust/annotate"
	"github.com/carbocation/esetclust/diffexpr"
	"github.com/carbocation/esetclust/eset"
	"github.com/carbocation/esetclust/heatmap"
	"github.com/carbocation/esetclust/hclust"
	"github.com/carbocation/esetclust/learn"
	"github.com/carbocation/pfx"
	"github.com/carbocation/runningvariance"
)

// lookupSymbols returns one symbol per feature, or nil when no annotation
// source is available.
func lookupSymbols(ctx context.Context, es *eset.ExpressionSet, tsvPath, dbPath, dir, query string, client *storage.Client) ([]string, error) {
	var source annotate.Annotator

	switch {
	case tsvPath != "":
		table, err := annotate.OpenTable(ctx, tsvPath, client)
		if err != nil {
			return nil, err
		}
		source = table

	default:
		if dbPath == "" {
			path, err := annotate.DefaultPath(dir, es.Annotation())
			if err != nil {
				log.Println("No annotation source; features keep their IDs")
				return nil, nil
			}
			if _, err := os.Stat(path); err != nil {
				log.Printf("No annotation database at %s; features keep their IDs\n", path)
				return nil, nil
			}
			dbPath = path
		}

		db, err := annotate.OpenSQLite(dbPath, query)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		source = db
	}

	features := es.Features()
	log.Printf("Annotated %d of %d features\n", annotate.Coverage(source, features), len(features))

	return annotate.Annotate(source, features), nil
}

// dropMissing removes the samples whose group is unknown.
func dropMissing(es *eset.ExpressionSet, group string) (*eset.ExpressionSet, error) {
	if es.Pheno() == nil {
		return nil, eset.ErrNoPheno
	}

	col, err := es.Pheno().Column(group)
	if err != nil {
		return nil, err
	}

	keep := make([]int, 0, len(col))
	for i, v := range col {
		if v.Valid {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(col) {
		return es, nil
	}
	log.Printf("Dropping %d samples with no %s\n", len(col)-len(keep), group)

	return es.Subset(nil, keep)
}

func groupLabels(es *eset.ExpressionSet, group string) ([]string, error) {
	col, err := es.Pheno().Column(group)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(col))
	for i, v := range col {
		out[i] = v.String
	}

	return out, nil
}

// selectFeatures returns the indices of the top features: by moderated
// statistics when there are groups, otherwise by variance.
func selectFeatures(es *eset.ExpressionSet, symbols []string, group, coef string, top int) ([]int, error) {
	if group == "" {
		return mostVariable(es, top), nil
	}

	design, err := diffexpr.DesignFromPheno(es.Pheno(), group)
	if err != nil {
		return nil, err
	}

	fit, err := diffexpr.Fit(es, design)
	if err != nil {
		return nil, err
	}
	fit.Symbols = symbols

	eb := diffexpr.EBayes(fit)
	log.Printf("Prior degrees of freedom %.3g, prior variance %.3g\n", eb.PriorDF, eb.PriorVar)

	rows, err := diffexpr.TopTable(eb, top, coef)
	if err != nil {
		return nil, err
	}

	if err := diffexpr.WriteTopTable(STDOUT, rows, design.Coefficients); err != nil {
		return nil, pfx.Err(err)
	}
	fmt.Fprintln(STDOUT)

	return diffexpr.Indices(rows), nil
}

// mostVariable ranks features by the spread of their observed values.
func mostVariable(es *eset.ExpressionSet, top int) []int {
	nf, _ := es.Dims()

	spread := make([]float64, nf)
	for f := range spread {
		rs := runningvariance.NewRunningStat()
		for _, v := range es.Row(f) {
			if !math.IsNaN(v) {
				rs.Push(v)
			}
		}

		spread[f] = -1
		if rs.N > 1 {
			spread[f] = rs.StandardDeviation()
		}
	}

	order := make([]int, nf)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return spread[order[a]] > spread[order[b]] })

	if top <= 0 || top > nf {
		top = nf
	}

	return order[:top]
}

func drawHeatmap(es *eset.ExpressionSet, path string, width int) error {
	view, err := eset.ToTabular(es)
	if err != nil {
		return err
	}

	img, err := heatmap.Render(view, heatmap.Options{
		ScaleFeatures: true,
		Reorder:       true,
		Width:         width,
		Title:         fmt.Sprintf("Top %d features", len(view.ColLabels())),
	})
	if err != nil {
		return err
	}

	return heatmap.Save(path, img)
}

// classify fits the learner on the samples x features table and reports its
// out-of-sample error.
func classify(es *eset.ExpressionSet, groups []string, method string, cfg learn.Config) error {
	l, err := learn.New(method, cfg)
	if err != nil {
		return err
	}

	view, err := eset.ToTabular(es)
	if err != nil {
		return err
	}

	model, err := l.Fit(view.Matrix(), groups)
	if err != nil {
		return err
	}

	est, ok := model.(learn.Estimator)
	if !ok {
		return nil
	}

	fmt.Fprintf(STDOUT, "%s: estimated error rate %.4f\n", method, est.OOBError())
	if f, ok := model.(*learn.Forest); ok {
		if mean, sd, err := f.TreeOOBSummary(); err == nil {
			fmt.Fprintf(STDOUT, "Per-tree OOB error %.4f (SD %.4f)\n", mean, sd)
		}
	}
	if err := est.OOBConfusion().Write(STDOUT); err != nil {
		return pfx.Err(err)
	}
	fmt.Fprintln(STDOUT)

	return nil
}

func writeAssignments(result *hclust.Result, groups []string, outputPath string) error {
	var w io.Writer = STDOUT
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return pfx.Err(err)
		}
		defer f.Close()
		w = f
	}

	log.Printf("%d clusters (%s distance, %s linkage)\n", result.K, result.Tree.Distance, result.Tree.Linkage)
	if err := result.WriteTSV(w); err != nil {
		return pfx.Err(err)
	}

	if groups == nil {
		return nil
	}

	ct, err := hclust.CrossTabulate(result.Assignments, groups)
	if err != nil {
		return err
	}
	fmt.Fprintln(STDOUT)

	return ct.Write(STDOUT)
}
