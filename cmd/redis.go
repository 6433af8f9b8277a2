package cmd

import (
	"context"
	"fmt"
	"time"

	"VinylShop/cache"

	"github.com/spf13/cobra"
)

var redisFlush bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。使用 --flush 清除专辑缓存。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("开始测试Redis连接...")
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		// 连接Redis
		client, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer client.Close()
		fmt.Println("Redis连接成功！")

		// 测试Redis基本操作
		if err := cache.CheckRedis(ctx, client); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if redisFlush {
			if err := cache.NewAlbumCache(client, cfg.CatalogTTL).Invalidate(ctx); err != nil {
				return fmt.Errorf("清除专辑缓存失败: %w", err)
			}
			fmt.Println("专辑缓存已清除。")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
	redisCmd.Flags().BoolVar(&redisFlush, "flush", false, "清除专辑目录缓存")
}
