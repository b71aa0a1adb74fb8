package cmd

import (
	"fmt"

	"github.com/cwbudde/go-tmplkit/pkg/tmplkit"
	"github.com/spf13/cobra"
)

func newCachingEngine() (*tmplkit.Engine, error) {
	return tmplkit.New(tmplkit.WithCaching(true))
}

// cacheCmd groups cache introspection subcommands. Each CLI invocation
// constructs a fresh Engine (and therefore a fresh, empty cache), and
// "stats"/"drop" render nothing, so they always operate on an empty
// cache; they are not a persistent cache inspector across runs.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the compiled-tree cache's shape",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print an empty cache's baseline counters",
	Long: `stats reports Count/IsEmpty for a freshly constructed engine's
cache. Since this process holds no cache across invocations, this is
mostly useful for confirming the cache starts empty and for scripting
against the cache package's shape; a long-lived host process embedding
pkg/tmplkit is where cache stats become meaningful over time.`,
	RunE: runCacheStats,
}

var cacheDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Construct an engine, then drop its (empty) cache",
	RunE:  runCacheDrop,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDropCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	e, err := newCachingEngine()
	if err != nil {
		return err
	}
	c := e.Cache()
	fmt.Printf("count: %d\n", c.Count())
	fmt.Printf("empty: %t\n", c.IsEmpty())
	return nil
}

func runCacheDrop(_ *cobra.Command, _ []string) error {
	e, err := newCachingEngine()
	if err != nil {
		return err
	}
	e.Cache().DropAll()
	fmt.Println("dropped")
	return nil
}
