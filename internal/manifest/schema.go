package manifest

import "github.com/santhosh-tekuri/jsonschema/v5"

// versionsSchemaJSON is the JSON Schema for a recipe's versions.json: a map
// from arbitrary version_tag strings to an object naming the folder that
// version lives in.
const versionsSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"folder": {"type": "string", "minLength": 1},
			"folder_alias": {"type": "string", "minLength": 1}
		},
		"required": ["folder"],
		"additionalProperties": false
	}
}`

// recipeSchemaJSON is the JSON Schema for a version folder's recipe.json.
// The file_name and recipe_name patterns enforce the same rule as
// validFolderName: no path-hostile characters or newlines, no leading or
// trailing space or dot.
const recipeSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"recipe_type": {"type": "string", "enum": ["python"]},
		"dependencies": {
			"type": "array",
			"items": {
				"oneOf": [
					{
						"type": "object",
						"properties": {
							"type": {"const": "fetch"},
							"url": {"type": "string", "pattern": "^https?://[^\\s]+$"},
							"file_name": {"type": "string", "pattern": "^[^<>:\"/\\\\|?*\\n\\r .](?:[^<>:\"/\\\\|?*\\n\\r]*[^<>:\"/\\\\|?*\\n\\r .])?$"}
						},
						"required": ["type", "url"],
						"additionalProperties": false
					},
					{
						"type": "object",
						"properties": {
							"type": {"const": "build"},
							"recipe_name": {"type": "string", "pattern": "^[^<>:\"/\\\\|?*\\n\\r .](?:[^<>:\"/\\\\|?*\\n\\r]*[^<>:\"/\\\\|?*\\n\\r .])?$"},
							"version": {"type": "string"}
						},
						"required": ["type", "recipe_name", "version"],
						"additionalProperties": false
					}
				]
			}
		}
	},
	"required": ["recipe_type", "dependencies"],
	"additionalProperties": false
}`

var (
	versionsSchema *jsonschema.Schema
	recipeSchema   *jsonschema.Schema
)

func init() {
	var err error
	versionsSchema, err = jsonschema.CompileString("versions.json", versionsSchemaJSON)
	if err != nil {
		panic("manifest: invalid embedded versions schema: " + err.Error())
	}
	recipeSchema, err = jsonschema.CompileString("recipe.json", recipeSchemaJSON)
	if err != nil {
		panic("manifest: invalid embedded recipe schema: " + err.Error())
	}
}
