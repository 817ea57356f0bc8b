// Command zault is the CLI driver for Zault, a zero-knowledge,
// post-quantum encrypted storage engine. It exposes Vault's
// operations - init, add, get, list, verify - over the vault directory
// resolved by internal/config.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zault/zault/internal/config"
	"github.com/zault/zault/internal/vault"
)

var vaultDir string

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "zault",
		Short: "Zault - zero-knowledge, post-quantum encrypted storage",
		Long: `Zault stores files as a content-addressed, append-only chain of
signed, encrypted blocks. Every block is signed with ML-DSA-65 and its
payload sealed with ChaCha20-Poly1305; file contents are never
recoverable without the vault's own identity.

Quick start:
  zault init            Create a vault and generate its identity
  zault add <file>       Encrypt and store a file
  zault get <hash>       Decrypt and write a stored file
  zault list             List files stored in the vault
  zault verify <hash>    Verify a block's signature`,
	}

	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault-dir", "", "vault directory (default: $ZAULT_VAULT_DIR or ~/.zault)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolvedVaultDir honors --vault-dir, falling back to config's
// environment-and-home-directory resolution.
func resolvedVaultDir() string {
	if vaultDir != "" {
		return vaultDir
	}
	return config.ResolveVaultDir()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a vault and generate its identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := resolvedVaultDir()
			v, err := vault.Init(dir)
			if err != nil {
				return fmt.Errorf("init vault: %w", err)
			}
			defer v.Close()

			pub := v.Identity().Public()
			pubBytes, err := pub.Bytes()
			if err != nil {
				return fmt.Errorf("serialize public identity: %w", err)
			}

			fmt.Printf("Vault initialized at %s\n", dir)
			fmt.Printf("Public identity (%d bytes): %x\n", len(pubBytes), pubBytes)
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Encrypt and store a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vault.Init(resolvedVaultDir())
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer v.Close()

			hash, err := v.AddFile(args[0])
			if err != nil {
				return fmt.Errorf("add file: %w", err)
			}

			info, statErr := os.Stat(args[0])
			size := ""
			if statErr == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}

			fmt.Printf("Stored %s", args[0])
			if size != "" {
				fmt.Printf(" (%s)", size)
			}
			fmt.Println()
			fmt.Printf("%x\n", hash)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <hash> [out]",
		Short: "Decrypt and write a stored file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := parseHash(args[0])
			if err != nil {
				return err
			}

			v, err := vault.Init(resolvedVaultDir())
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer v.Close()

			outPath := ""
			if len(args) == 2 {
				outPath = args[1]
			} else {
				outPath, err = v.ResolveFilename(hash)
				if err != nil {
					return fmt.Errorf("resolve stored filename: %w", err)
				}
			}

			if err := v.GetFile(hash, outPath); err != nil {
				return fmt.Errorf("get file: %w", err)
			}

			fmt.Printf("Wrote %s\n", outPath)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files stored in the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vault.Init(resolvedVaultDir())
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer v.Close()

			entries, err := v.List()
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("No files stored.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%x  %10s  %-30s  %s\n", e.Hash[:8], humanize.Bytes(e.Size), e.Filename, e.Mime)
			}
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <hash>",
		Short: "Verify a block's signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := parseHash(args[0])
			if err != nil {
				return err
			}

			v, err := vault.Init(resolvedVaultDir())
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer v.Close()

			if err := v.Verify(hash); err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			fmt.Println("ok")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show zault version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("zault %s\n", version)
		},
	}
}
