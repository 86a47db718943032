package mcpserver

// NoteFormatContract describes the Markdown note format that LLM consumers
// should follow when creating or updating notes.
const NoteFormatContract = `# Bedrock Note Format Contract

Notes are plain Markdown files. The editor, link graph and search index all
read the same source, so following these rules keeps every view consistent.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – falls back to the first H1
aliases:                            # OPTIONAL – alternative names
  - other name
---

# Heading

Body text in Markdown. Tag the note inline: #project-x #meeting-notes

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target#Heading|alias]] to link to a heading with display text.
Use ![[image.png]] to embed an attachment.
` + "```" + `

## Rules

1. **Frontmatter is optional.** When present the ` + "```" + `---` + "```" + ` fence must be the
   first line of the file. Only ` + "`" + `title` + "`" + ` and ` + "`" + `aliases` + "`" + ` are read.
2. **Title** is the frontmatter ` + "`" + `title` + "`" + `, otherwise the first level-1 heading.
3. **Tags** are written inline as ` + "`" + `#tag` + "`" + ` and matched case-insensitively.
   Nested tags use slashes: ` + "`" + `#project/alpha` + "`" + `.
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is a vault
   path or a file stem; a stem shared by several notes stays unresolved, so prefer
   ` + "`" + `[[folder/note]]` + "`" + ` when names repeat.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. Names starting with
   a dot are ignored.
6. **Encoding** is UTF-8.
7. **Comments** between ` + "`" + `%%` + "`" + ` markers are kept in the file but hidden in preview.

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + ` field ready to paste into the note body.
- Assets are stored in the shared ` + "`" + `attachments/` + "`" + ` directory (flat, no sub-folders).
- Reference them relative to the note, e.g. ` + "`" + `![[attachments/diagram.png]]` + "`" + ` or
  ` + "`" + `![diagram](attachments/diagram.png)` + "`" + `; these get inline previews in the editor.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
aliases:
  - standup
---

# Weekly standup 2025-01-20

#meeting-notes #project-x

![[attachments/standup-2025-01-20.jpg]]

## Action items

- [ ] [[alice]] to review the [[design-doc#Open questions|open questions]]
- [ ] Bob to update [[project-x/roadmap|the roadmap]]
` + "```" + `
`
