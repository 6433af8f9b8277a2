package cmd

import (
	"VinylShop/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动VinylShop服务器",
	Long:  `启动专辑目录的HTTP服务器，提供REST API、实时搜索和监控指标`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
