package annotate

import "fmt"

const chunkPromptTemplate = `Analyze this content (part %d of %d) from the file "%s":

%s

Provide:
1) A concise summary of this section
2) Key insights or important points (if any)
3) Relevant tags or categories
4) Notable features or characteristics

Focus specifically on this chunk's content, not the entire document.`

const singlePromptTemplate = `Analyze this content from the file "%s":

%s

Provide:
1) A concise summary of the content
2) Key insights or important points (if any)
3) Relevant tags or categories
4) Notable features or characteristics`

func chunkPrompt(name string, index, total int, text string) string {
	return fmt.Sprintf(chunkPromptTemplate, index+1, total, name, text)
}

func singlePrompt(name, text string) string {
	return fmt.Sprintf(singlePromptTemplate, name, text)
}
