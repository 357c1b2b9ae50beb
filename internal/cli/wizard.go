package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/multisource/trillm/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var wizardEnvFile string

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup: credentials, directories, sanity checks",
	Long: `Wizard walks through first-time setup. It asks for each provider's API
key (input is hidden), writes them to an env file, creates the working
directories and reports which providers are ready to use.

Keys already present in the environment are kept unless you enter a new
value.`,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().StringVar(&wizardEnvFile, "env-file", ".env", "file to write credentials to")
}

// keyPrompt describes one credential the wizard asks for.
type keyPrompt struct {
	envVar   string
	provider config.Provider
	label    string
}

var keyPrompts = []keyPrompt{
	{"OPENAI_API_KEY", config.ProviderOpenAI, "OpenAI"},
	{"ANTHROPIC_API_KEY", config.ProviderAnthropic, "Anthropic"},
	{"GEMINI_API_KEY", config.ProviderGemini, "Google Gemini"},
}

func runWizard(cmd *cobra.Command, args []string) error {
	printHeader("Trillm Setup Wizard")

	values := make(map[string]string)
	reader := bufio.NewReader(os.Stdin)

	for _, kp := range keyPrompts {
		existing := os.Getenv(kp.envVar)
		if existing != "" && !strings.Contains(existing, "your_") {
			fmt.Printf("%s key found in environment. Replace it? [y/N] ", kp.label)
			answer, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				values[kp.envVar] = existing
				continue
			}
		}

		key, err := readSecret(fmt.Sprintf("%s API key (leave empty to skip): ", kp.label))
		if err != nil {
			return err
		}
		if key != "" {
			values[kp.envVar] = key
		}
	}

	if len(values) == 0 {
		printFailure("No API keys entered; at least one provider is required")
		return fmt.Errorf("no credentials configured")
	}

	if err := writeEnvFile(wizardEnvFile, values); err != nil {
		return err
	}
	printSuccess("Credentials written to %s", wizardEnvFile)

	for _, dir := range []string{cfg.OutputDir, cfg.LogDir, cfg.StorePath, "prompts", "data"} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	printSuccess("Working directories created")

	printHeader("Provider availability")
	ready := 0
	for _, kp := range keyPrompts {
		if _, ok := values[kp.envVar]; ok {
			printSuccess("%s configured", kp.label)
			ready++
		} else {
			printFailure("%s not configured", kp.label)
		}
	}

	fmt.Println()
	switch ready {
	case len(keyPrompts):
		printHint("All providers ready. Try: trillm demo")
	case 1:
		printHint("Only one provider is configured; use 'trillm fallback --provider <name>' for single-provider runs")
	default:
		printHint("Missing providers will be skipped during fan-out runs")
	}
	printHint("Load the credentials with: set -a; source %s; set +a", wizardEnvFile)
	return nil
}

// readSecret reads a line without echoing it. Falls back to plain reads
// when stdin is not a terminal, so the wizard stays scriptable.
func readSecret(promptText string) (string, error) {
	fmt.Print(promptText)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

func writeEnvFile(path string, values map[string]string) error {
	var b strings.Builder
	b.WriteString("# Generated by trillm wizard\n")
	for _, kp := range keyPrompts {
		if v, ok := values[kp.envVar]; ok {
			fmt.Fprintf(&b, "%s=%s\n", kp.envVar, v)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}
