package cmd

import (
	"context"
	"fmt"
	"time"

	"VinylShop/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioDelete string
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO封面存储管理",
	Long:  `检查封面存储桶，列出封面文件或删除指定封面。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		covers, err := storage.NewCoverStorage(cfg)
		if err != nil {
			return fmt.Errorf("创建MinIO客户端失败: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := covers.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		fmt.Println("MinIO连接成功！")

		if minioDelete != "" {
			if err := covers.DeleteCover(ctx, minioDelete); err != nil {
				return fmt.Errorf("删除封面失败: %w", err)
			}
			fmt.Printf("已删除: %s\n", minioDelete)
			return nil
		}

		objects, err := covers.ListCovers(ctx, minioPrefix)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}
		var total int64
		for _, obj := range objects {
			fmt.Printf("%-60s %10d  %s\n", obj.Key, obj.Size, obj.ContentType)
			total += obj.Size
		}
		fmt.Printf("\n共 %d 个文件, %d 字节\n", len(objects), total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件, 相对于 covers/")
	minioCmd.Flags().StringVarP(&minioDelete, "delete", "d", "", "删除指定的封面对象")

	minioCmd.Example = `  # 列出所有封面
  vinylshop minio

  # 只列出某张专辑的封面
  vinylshop minio -p "42/"

  # 删除一个封面
  vinylshop minio -d "covers/42/0b6c...png"`
}
