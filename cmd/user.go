package cmd

import (
	"context"
	"fmt"
	"time"

	"VinylShop/core/credential"
	"VinylShop/db"
	"VinylShop/model"

	"github.com/spf13/cobra"
)

var (
	userFirstName string
	userLastName  string
	userEmail     string
	userPassword  string
	userAdmin     bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建用户",
	Long:  `创建一个新用户，经过与注册接口相同的校验和密码哈希。使用 --admin 创建管理员。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return fmt.Errorf("password cannot be null")
		}

		store, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := store.Sync(ctx); err != nil {
			return err
		}

		user, err := credential.NewGorm(store).CreateUser(ctx, &model.User{
			FirstName: userFirstName,
			LastName:  userLastName,
			Email:     userEmail,
			Password:  userPassword,
			IsAdmin:   userAdmin,
		})
		if err != nil {
			return err
		}
		fmt.Printf("用户创建成功: id=%d email=%s admin=%t\n", user.ID, user.Email, user.IsAdmin)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "名")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "姓")
	userCreateCmd.Flags().StringVarP(&userEmail, "email", "e", "", "邮箱")
	userCreateCmd.Flags().StringVarP(&userPassword, "password", "p", "", "密码")
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "创建管理员账号")

	userCreateCmd.Example = `  vinylshop user create --first-name James --last-name Bond -e bond@007.com -p secret --admin`
}
