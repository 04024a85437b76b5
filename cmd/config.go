package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lvh-project/lvh/pkg/defaults"
	"github.com/lvh-project/lvh/pkg/utils"
)

const configTemplate = `test:
  driver: hyperv://localhost
  ssh-key: certs/id_rsa
  vms:
    vm1:
      name: lvh-vm1
      ip: 192.168.1.10
      user: root
log:
  level: info
  dist: logs
report:
  dist: reports
  database: results.db
  sql: false
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the harness configuration",
}

var configAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a default config and an ssh keypair for guest access",
	Run: func(cmd *cobra.Command, args []string) {
		homeDir, err := utils.DefaultHomePath()
		if err != nil {
			log.Fatal(err)
		}
		certsDir := filepath.Join(homeDir, "certs")
		if err := os.MkdirAll(certsDir, 0755); err != nil {
			log.Fatal(err)
		}

		configPath := filepath.Join(homeDir, defaults.DefaultConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			log.Fatalf("config %s already exists", configPath)
		}
		if err := os.WriteFile(configPath, []byte(configTemplate), 0644); err != nil {
			log.Fatal(err)
		}

		keyFile := filepath.Join(certsDir, "id_rsa")
		if _, err := os.Stat(keyFile); os.IsNotExist(err) {
			if err := utils.GenerateSSHKeyPair(keyFile, keyFile+".pub"); err != nil {
				log.Fatal(err)
			}
		}
		fmt.Println(configPath)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := utils.LoadConfigFile(utils.GetConfig(configFile)); err != nil {
			log.Fatal(err)
		}
		for _, key := range viper.AllKeys() {
			fmt.Printf("%s: %v\n", key, viper.Get(key))
		}
	},
}

func configInit() {
	configCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to harness config file")
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configListCmd)
}
