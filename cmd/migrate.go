package cmd

import (
	"context"
	"fmt"
	"time"

	"VinylShop/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "同步数据库表结构",
	Long:  `使用GORM AutoMigrate创建或更新albums和users表。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		if err := store.Sync(ctx); err != nil {
			return err
		}
		fmt.Println("表结构同步完成！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
