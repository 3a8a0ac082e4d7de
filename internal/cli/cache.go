package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nelsonlove/jd/internal/adapters/sqlite"
	"github.com/nelsonlove/jd/internal/scanner"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the index cache",
	Long:  "The cache mirrors the last scan in a sqlite database under <root>/.jd so external tooling can query the tree without walking it. It is advisory: mutating commands always rescan the filesystem.",
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the cache from a fresh scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := treeRoot(cmd)
		if err != nil {
			return err
		}
		sys, err := scanner.Scan(root, scanner.Options{})
		if err != nil {
			return err
		}

		db, err := sqlite.Open(root)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlite.NewIndexRepository(db).Save(cmd.Context(), sys.Snapshot()); err != nil {
			return err
		}
		fmt.Printf("✓ cached %s\n", sqlite.DBPath(root))
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show what the cache holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := treeRoot(cmd)
		if err != nil {
			return err
		}
		db, err := sqlite.Open(root)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := sqlite.NewIndexRepository(db)
		snap, err := repo.Load(cmd.Context())
		if err != nil {
			return err
		}

		cats, ids := 0, 0
		for _, area := range snap.Areas {
			cats += len(area.Categories)
			for _, cat := range area.Categories {
				ids += len(cat.IDs)
			}
		}
		fmt.Printf("root: %s\n", snap.Root)
		fmt.Printf("%d area(s), %d category(ies), %d id(s)\n", len(snap.Areas), cats, ids)
		if ts, err := repo.RefreshedAt(cmd.Context()); err == nil {
			fmt.Printf("refreshed: %s\n", ts.Local())
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := treeRoot(cmd)
		if err != nil {
			return err
		}
		db, err := sqlite.Open(root)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlite.NewIndexRepository(db).Clear(context.Background()); err != nil {
			return err
		}
		fmt.Println("✓ cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheRefreshCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func CacheCmd() *cobra.Command {
	return cacheCmd
}
