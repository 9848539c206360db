package generator

import (
	"encoding/json"
	"text/template"
)

var funcs = template.FuncMap{
	"json": func(v interface{}) string {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "{}"
		}
		return string(b)
	},
}

var generateTemplate = template.Must(template.New("generate").Funcs(funcs).Parse(`# Build a new GO4IT app

Create a complete, working web application in the current directory.

## Request
{{.Prompt}}
{{if .BusinessContext}}
## Business context
` + "```json" + `
{{json .BusinessContext}}
` + "```" + `
{{end}}
## Requirements
- Include a Dockerfile that serves the app on port 3000.
- Write ` + ManifestFile + ` at the project root with "title" and "description" fields.
- Do not touch the .go4it directory.
`))

var iterateTemplate = template.Must(template.New("iterate").Funcs(funcs).Parse(`# Modify an existing GO4IT app (iteration {{.SequenceNumber}})

The app in the current directory already works. Apply this change without breaking existing features:

{{.Prompt}}

Keep the Dockerfile serving on port 3000 and update ` + ManifestFile + ` if the app's purpose changed.
`))
