package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jacksmith/verso/internal/catalog"
	"github.com/jacksmith/verso/internal/model"
	"github.com/jacksmith/verso/internal/storage"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for verso.

To load completions:

Bash:
  $ source <(verso completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ verso completion bash > /etc/bash_completion.d/verso
  # macOS:
  $ verso completion bash > $(brew --prefix)/etc/bash_completion.d/verso

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ verso completion zsh > "${fpath[1]}/_verso"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ verso completion fish | source
  # To load completions for each session, execute once:
  $ verso completion fish > ~/.config/fish/completions/verso.fish
`,
}

var completionBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completion script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenBashCompletionV2(os.Stdout, true)
	},
}

var completionZshCmd = &cobra.Command{
	Use:   "zsh",
	Short: "Generate zsh completion script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenZshCompletion(os.Stdout)
	},
}

var completionFishCmd = &cobra.Command{
	Use:   "fish",
	Short: "Generate fish completion script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenFishCompletion(os.Stdout, true)
	},
}

func init() {
	completionCmd.AddCommand(completionBashCmd)
	completionCmd.AddCommand(completionZshCmd)
	completionCmd.AddCommand(completionFishCmd)
	rootCmd.AddCommand(completionCmd)
}

// completionCatalog loads the catalog without opening the cart, falling back
// to the built-in catalog outside a verso directory.
func completionCatalog() *catalog.Catalog {
	if s, err := storage.Open(flagDir); err == nil {
		if cfg, err := s.LoadConfig(); err == nil {
			if c, err := loadCatalog(s, cfg); err == nil {
				return c
			}
		}
	}
	c, err := catalog.Default()
	if err != nil {
		return nil
	}
	return c
}

// filterPrefix keeps the candidates starting with toComplete, ignoring case.
func filterPrefix(candidates []string, toComplete string) []string {
	var out []string
	lower := strings.ToLower(toComplete)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			out = append(out, c)
		}
	}
	return out
}

// completeProductIDs completes catalog ids, described by product name.
func completeProductIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c := completionCatalog()
	if c == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, id := range filterPrefix(c.IDs(), toComplete) {
		e, _ := c.Lookup(id)
		completions = append(completions, id+"\t"+e.Name)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeSizes completes sizes, restricted to the product's when one is named.
func completeSizes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c := completionCatalog()
	if c == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sizes := c.Sizes
	if len(args) > 0 {
		if e, err := c.Lookup(args[0]); err == nil {
			sizes = e.SizesIn(c.Sizes)
		}
	}
	return filterPrefix(sizes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeGrinds completes grinds.
func completeGrinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c := completionCatalog()
	if c == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(c.Grinds, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completePositions completes cart positions, described by line.
func completePositions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := storage.Open(flagDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := s.LoadConfig()
	if err != nil || cfg.Backend != storage.BackendFile {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	data, found, err := s.Get(cfg.SlotKey)
	if err != nil || !found {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	items, err := model.DecodeCart(data)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for i, li := range items {
		pos := strconv.Itoa(i + 1)
		if strings.HasPrefix(pos, toComplete) {
			completions = append(completions, fmt.Sprintf("%s\t%s", pos, describe(li.Name, li.Variant())))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
