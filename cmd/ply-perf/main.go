// Command ply-perf loads one or more PLY files as triangle meshes and
// reports per-file elapsed time, optionally caching clean-load results
// in an extended attribute to skip re-validating unchanged files on
// repeat runs.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/xattr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyuri/goply/pkg/ply"
)

const validityXattr = "user.ply.valid"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ply-perf <file.ply> [file2.ply...]",
	Short: "Benchmark loading one or more PLY files",
	Long: `ply-perf loads each file, optionally triangulating every face
element, and reports elapsed milliseconds per file. Exit code is
non-zero if any file fails to load.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPerf,
}

func init() {
	rootCmd.Flags().Bool("assume-triangles", false, "triangulate the vertex_indices list of the face element")
	rootCmd.Flags().String("codec", "auto", "decompression codec: auto, none, gzip, lz4, xz, lzo")
	rootCmd.Flags().Bool("cache-validity", false, "skip re-validating files whose "+validityXattr+" xattr already says valid")
	rootCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().Bool("log-json", false, "emit logs as JSON instead of text")
}

func runPerf(cmd *cobra.Command, args []string) error {
	assumeTriangles, _ := cmd.Flags().GetBool("assume-triangles")
	codec, _ := cmd.Flags().GetString("codec")
	cacheValidity, _ := cmd.Flags().GetBool("cache-validity")
	log := buildLogger(cmd)

	runID := uuid.New().String()
	log.WithField("run_id", runID).Info("ply-perf: starting run")

	failed := false
	for _, path := range args {
		if cacheValidity && fileCachedValid(path, log) {
			log.WithFields(logrus.Fields{"run_id": runID, "file": path}).Info("ply-perf: skipped, cached valid")
			continue
		}
		elapsed, err := runOne(path, assumeTriangles, codec, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("%s: %.2fms\n", path, elapsed.Seconds()*1000)
		log.WithFields(logrus.Fields{"run_id": runID, "file": path, "elapsed_ms": elapsed.Seconds() * 1000}).Info("ply-perf: loaded")
		if cacheValidity {
			markCachedValid(path, log)
		}
	}
	if failed {
		return fmt.Errorf("one or more files failed to load")
	}
	return nil
}

func buildLogger(cmd *cobra.Command) *logrus.Entry {
	levelName, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("log-json")
	log := logrus.New()
	if level, err := logrus.ParseLevel(levelName); err == nil {
		log.SetLevel(level)
	}
	if asJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return logrus.NewEntry(log)
}

func runOne(path string, assumeTriangles bool, codec string, log *logrus.Entry) (time.Duration, error) {
	start := time.Now()

	opts := []ply.Option{ply.WithLogger(log)}
	if codec != "" && codec != "auto" {
		opts = append(opts, ply.WithDecompression(true), ply.WithForcedCodec(codec))
	} else if codec == "auto" {
		opts = append(opts, ply.WithDecompression(true))
	}

	r, err := ply.Construct(path, opts...)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var vertPos []float32
	var numVerts int

	for r.HasElement() {
		el, _ := r.Element()
		if err := r.LoadElement(); err != nil {
			return 0, fmt.Errorf("load element %q: %w", el.Name, err)
		}

		if el.Name == "vertex" {
			dst := make([]float32, el.Count*3)
			if ok, _ := r.HasScalarTuple([]string{"x", "y", "z"}); ok {
				if _, err := r.ExtractScalarTuple([]string{"x", "y", "z"}, dst); err == nil {
					vertPos = dst
					numVerts = el.Count
				}
			}
		}

		if assumeTriangles && el.Name == "face" && vertPos != nil {
			idx := el.FindProperty("vertex_indices")
			if idx >= 0 {
				if _, err := r.ExtractTriangles("vertex_indices", vertPos, numVerts); err != nil {
					log.WithError(err).WithField("element", el.Name).Warn("ply-perf: triangulation skipped")
				}
			}
		}

		if err := r.NextElement(); err != nil {
			return 0, fmt.Errorf("next element: %w", err)
		}
	}

	if !r.Valid() {
		return 0, fmt.Errorf("reader invalid after reading %s", path)
	}
	return time.Since(start), nil
}

func fileCachedValid(path string, log *logrus.Entry) bool {
	data, err := xattr.Get(path, validityXattr)
	if err != nil {
		return false
	}
	return string(data) == "1"
}

func markCachedValid(path string, log *logrus.Entry) {
	if err := xattr.Set(path, validityXattr, []byte("1")); err != nil {
		log.WithError(err).Debug("ply-perf: could not set validity xattr")
	}
}
