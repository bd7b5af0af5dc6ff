package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for reefrank.

To load completions:

Bash:
  $ source <(reefrank completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ reefrank completion bash > /etc/bash_completion.d/reefrank
  # macOS:
  $ reefrank completion bash > $(brew --prefix)/etc/bash_completion.d/reefrank

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ reefrank completion zsh > "${fpath[1]}/_reefrank"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ reefrank completion fish | source

  # To load completions for each session, execute once:
  $ reefrank completion fish > ~/.config/fish/completions/reefrank.fish

PowerShell:
  PS> reefrank completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> reefrank completion powershell > reefrank.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeDomainFile completes the <domain.json> argument.
func completeDomainFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeScenarioFile completes --scenario flags.
func completeScenarioFile(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeRunID completes run IDs from the run store.
func (c *CLI) completeRunID(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	// Completion runs without PersistentPreRunE.
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	c.Config = cfg
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer st.Close()
	runs, err := st.ListRuns(ctx, 50)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, toComplete) {
			ids = append(ids, r.ID+"\t"+r.Domain+" "+r.Algorithm)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
