package vision

import (
	_ "embed"
	"os"

	"github.com/rs/zerolog/log"
)

// The analysis instruction is a versioned asset, not an inline constant, so
// prompt changes don't require touching oracle client code.
//
//go:embed prompt.txt
var defaultPrompt string

// PromptFileEnv optionally points at a file overriding the embedded prompt.
const PromptFileEnv = "FACEGRADE_PROMPT_FILE"

// Prompt returns the analysis instruction sent with every oracle call.
func Prompt() string {
	if path := os.Getenv(PromptFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to read prompt override, using embedded prompt")
		} else {
			return string(data)
		}
	}
	return defaultPrompt
}
