// Package schemas embeds the JSON Schemas for the files the CLI reads.
package schemas

import "embed"

// TeamData is the file name of the analyzer input bundle schema.
const TeamData = "team_data.schema.json"

// Files holds every schema in this directory.
//
//go:embed *.schema.json
var Files embed.FS
