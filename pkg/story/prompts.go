package story

import (
	"strings"

	"github.com/lithammer/dedent"
)

// Banner opens the first stage of every story.
const Banner = "Here comes a majestic fairytale!\n\n"

var structureTemplate = dedent.Dedent(`
	Generate the structure of a story
	with a specified topic and moral
	and in a style of a specified author.

	TOPIC:
	{topic}
	MORAL:
	{moral}
	AUTHOR:
	{author}

	OUTPUT FORMAT:
	    [exposition]
	    - step 1
	    - step 2
	    - step 3
	    [climax]
	    - step 1
	    - step 2
	    - step 3
	    [resolution]
	    - step 1
	    - step 2
	    - step 3

	STRUCTURE:
	`)

var stageTemplate = dedent.Dedent(`
	Generate the next part of the story
	based on the specified structure and stage.

	STRUCTURE:
	{structure}
	STORY SO FAR:
	{story}
	CURRENT STAGE:
	{stage}

	`)

// StructurePrompt fills the outline template. The values are substituted in a
// single pass so user text containing placeholders is left alone.
func StructurePrompt(topic, moral, author string) string {
	return strings.NewReplacer(
		"{topic}", topic,
		"{moral}", moral,
		"{author}", author,
	).Replace(structureTemplate)
}

// StagePrompt fills the continuation template for one stage.
func StagePrompt(structureRaw, summary, stage string) string {
	return strings.NewReplacer(
		"{structure}", structureRaw,
		"{story}", summary,
		"{stage}", stage,
	).Replace(stageTemplate)
}
