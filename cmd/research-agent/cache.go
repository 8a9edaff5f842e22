// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
	Long: `Cache manages the local SQLite store that memoizes search provider
responses and backs rate limiting. Use stats to see what it holds, purge
to drop expired entries, and clear to delete entries by pattern.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()
		store := openStore(cfg.Cache, os.Stderr)
		if store == nil {
			fmt.Println("Cache is disabled.")
			return nil
		}
		defer store.Close()

		n, err := store.Len()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d entries\n", cfg.Cache.Path, n)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()
		store := openStore(cfg.Cache, os.Stderr)
		if store == nil {
			fmt.Println("Cache is disabled.")
			return nil
		}
		defer store.Close()

		n, err := store.Purge()
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired entries.\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [pattern]",
	Short: "Delete cache entries matching a glob pattern",
	Long: `Clear deletes cache entries whose keys match the glob pattern, e.g.
"search:*" for all memoized search responses. Without a pattern every
entry is deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		cfg := engineConfig()
		store := openStore(cfg.Cache, os.Stderr)
		if store == nil {
			fmt.Println("Cache is disabled.")
			return nil
		}
		defer store.Close()

		n, err := store.DeletePattern(pattern)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries matching %q.\n", n, pattern)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(cacheCmd)
}
