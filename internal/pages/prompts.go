package pages

const generateSystemPrompt = `You are a web developer producing a complete, self-contained HTML page. Return only the HTML document, starting with <!DOCTYPE html>. Inline all CSS in a <style> block. Do not use external assets or scripts.`

// templateInstructions shape the layout the model is asked for.
var templateInstructions = map[Template]string{
	TemplateReport:    "Produce a formal report layout: a titled header, a table of contents, one section per source, and a conclusions section.",
	TemplateBlog:      "Produce a blog article layout: a headline, a lead paragraph, and flowing prose sections with pull quotes for key insights.",
	TemplateDocs:      "Produce a documentation layout: a sidebar listing the sources, one documentation section per source, and inline tag badges.",
	TemplatePortfolio: "Produce a portfolio layout: a card grid with one card per source showing its name, summary, and tags.",
	TemplateLanding:   "Produce a landing page layout: a hero section, a features grid drawn from the key insights, and a closing call to action.",
}

const generatePromptTemplate = `Create an HTML page titled "%s".

%s

%s

Build the page from these annotated sources:

%s`
