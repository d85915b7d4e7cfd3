package jira

import (
	"strings"

	"github.com/tidwall/gjson"
)

// blockNodes end a line in the flattened text.
var blockNodes = map[string]bool{
	"paragraph":  true,
	"heading":    true,
	"listItem":   true,
	"blockquote": true,
	"codeBlock":  true,
	"tableRow":   true,
	"rule":       true,
}

// flattenADF converts an Atlassian Document Format node tree into plain text,
// one line per block.
func flattenADF(doc gjson.Result) string {
	var b strings.Builder
	walkADF(doc, &b)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func walkADF(node gjson.Result, b *strings.Builder) {
	nodeType := node.Get("type").String()
	switch nodeType {
	case "text":
		b.WriteString(node.Get("text").String())
		return
	case "hardBreak":
		b.WriteString("\n")
		return
	case "mention", "emoji":
		b.WriteString(node.Get("attrs.text").String())
		return
	}

	node.Get("content").ForEach(func(_, child gjson.Result) bool {
		walkADF(child, b)
		return true
	})

	if blockNodes[nodeType] {
		b.WriteString("\n")
	}
}
