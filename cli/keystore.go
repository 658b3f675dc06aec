package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faeton/treasury-sdk-go/config"
	"github.com/faeton/treasury-sdk-go/wallet"
)

func (a *App) keystoreCommand() *cobra.Command {
	var dir, password string

	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Manage encrypted wallet keystores",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "keystore", "Keystore directory")
	cmd.PersistentFlags().StringVar(&password, "password", "", "Keystore password (default TREASURY_KEYSTORE_PASSWORD)")

	save := func(mnemonic, pw string) (string, string, error) {
		if pw == "" {
			return "", "", fmt.Errorf("keystore password is required")
		}
		km, err := wallet.NewKeystoreManager(dir)
		if err != nil {
			return "", "", err
		}
		path, err := km.Save(mnemonic, pw)
		if err != nil {
			return "", "", err
		}
		w, err := wallet.NewWalletFromMnemonic(mnemonic)
		if err != nil {
			return "", "", err
		}
		return path, w.Address().String(), nil
	}

	passwordOr := func(cfg *config.Config) string {
		if password != "" {
			return password
		}
		return cfg.KeystorePassword
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new wallet and store its mnemonic encrypted",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			mnemonic := wallet.NewMnemonic()
			path, addr, err := save(mnemonic, passwordOr(cfg))
			if err != nil {
				return err
			}
			a.println("Wallet created. Write the mnemonic down; it is not shown again.")
			a.printFields([][2]string{
				{"Address", addr},
				{"Mnemonic", mnemonic},
				{"Keystore", path},
			})
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Encrypt the configured MNEMONIC into a keystore file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cfg.Mnemonic == "" {
				return fmt.Errorf("MNEMONIC is required")
			}
			path, addr, err := save(cfg.Mnemonic, passwordOr(cfg))
			if err != nil {
				return err
			}
			a.println("Keystore saved")
			a.printFields([][2]string{
				{"Address", addr},
				{"Keystore", path},
			})
			return nil
		},
	}

	cmd.AddCommand(newCmd, importCmd)
	return cmd
}
