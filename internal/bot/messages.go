package bot

import (
	"github.com/lithammer/dedent"
)

const (
	FailureMessage    = "Failed, sorry :("
	GeneratingMessage = "Generating the next part of the story..."
	ContinueHint      = "\n\n/continue ..."
	UnknownMessage    = "Unknown command. Use /help to see the available commands."
)

var startMessage = dedent.Dedent(`
	Hi! This is a fairytale generator bot
	For now, use /randomize to generate random topic, moral and author style

	/begin - start a new story
	/continue - generate next part of the story
	/reset - reset the current story and start over
	/upgrade or /downgrade

	use /help to get a full list of possible commands
	`)
